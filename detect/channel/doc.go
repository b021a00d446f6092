// Package channel picks the ECG reference channel for multi-channel
// recordings. During an initial observation window every channel runs
// its own R-peak detector; the channel with the tallest and most
// consistently oriented peaks wins.
package channel
