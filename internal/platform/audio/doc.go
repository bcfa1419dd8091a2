// Package audio plays the alarm tone at a forced volume until stopped.
//
// A Tone is mono 16-bit PCM that a Backend loops indefinitely. The built-in
// tone is a two-pitch beep pattern; a WAV file can replace it. On Linux the
// pulse backend talks to PulseAudio (or PipeWire's pulse server) directly and
// pins the stream volume; elsewhere oto drives the native audio API.
package audio
