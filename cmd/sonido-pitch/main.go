// Command sonido-pitch estimates the fundamental frequency of WAV files and
// synthetic test tones with the streaming period detector.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
