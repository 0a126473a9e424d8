// ABOUTME: Producer-side input module contract for audioqueue
// ABOUTME: Defines Source, the interface every producer implements
// Package producer defines the contract a mixing queue input module
// implements: start, stop, active, and a push loop that feeds an
// audioqueue.AudioQueue. Concrete sources live in the filereader,
// netreceiver and tone subpackages.
package producer
