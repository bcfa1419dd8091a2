// Package ctl implements the reminderctl commands on top of the daemon client.
package ctl
