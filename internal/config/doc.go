// Package config loads and validates the settings shared by reminderd and
// reminderctl.
//
// Settings live in a YAML file (reminder-settings.yaml by default). Every field
// can be overridden through a REMINDER_* environment variable, and a missing
// file is not an error: defaults plus environment are used instead.
package config
