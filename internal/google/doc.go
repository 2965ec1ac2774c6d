// Package google handles OAuth2 credentials for the Gmail and
// Calendar APIs.
//
// Tokens come from one of two sources: a static access token in
// INBOXAGENT_GOOGLE_TOKEN (for containers where something else keeps
// it fresh), or a cached refresh token on disk written by the auth
// command. GetTokenSource picks whichever is configured.
package google
