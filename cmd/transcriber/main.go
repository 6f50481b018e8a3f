package main

import "audio-transcription/internal/cli"

func main() {
	cli.Execute()
}
