// Package environment detects installer and recovery boot contexts.
//
// Applying a support package from an OS installer or recoveryOS is unsafe,
// so the resolver skips all work when either context is active. Detection
// combines a recovery filesystem marker with a scan of the process table
// for installer daemons; configuration can force either flag.
package environment
