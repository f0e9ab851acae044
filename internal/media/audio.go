package media

import (
	htgotts "github.com/hegedustibor/htgo-tts"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// SpeechFile synthesizes text into an MP3 inside dir using the Google
// Translate voice for the given language code. baseName carries no
// extension; the returned path ends in .mp3.
func SpeechFile(dir, baseName, text, language string) (string, error) {
	speech := htgotts.Speech{Folder: dir, Language: language}
	return speech.CreateSpeechFile(text, baseName)
}

// ExtractAudio pulls the audio track out of a staged video upload into
// an MP3 artifact. Requires an ffmpeg binary on PATH.
func ExtractAudio(videoPath, audioPath string) error {
	return ffmpeg.Input(videoPath).
		Output(audioPath, ffmpeg.KwArgs{"vn": "", "acodec": "libmp3lame", "q:a": "2"}).
		OverWriteOutput().
		Silent(true).
		Run()
}
