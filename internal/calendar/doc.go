// Package calendar checks availability and books meetings through the
// Google Calendar API.
//
// Availability reduces the primary calendar's busy periods to free
// slots within working hours, rendered as the observation string the
// response agent reads. CreateEvent inserts an event and notifies all
// attendees.
package calendar
