// Package models lists the models a generation provider offers, so users
// can pick a value for the provider.model setting.
package models
