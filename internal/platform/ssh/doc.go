// Package ssh provides an SSH client for checking that a freshly provisioned
// workspace accepts logins before it is handed to the configuration step.
//
// An assigned address does not mean sshd is up yet; the client retries the
// connection with backoff until it succeeds or the attempt budget runs out.
package ssh
