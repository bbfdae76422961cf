// Package browser automates the three dashboard tasks that have no API:
// retrieving a fresh API key, registering a website knowledge source, and
// importing actions. All three run against one logged-in Chrome session so
// the login cost is paid once per provisioning run.
package browser
