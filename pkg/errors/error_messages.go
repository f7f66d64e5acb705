package errors

// ErrorMessages holds the user-facing text for each error code.
var ErrorMessages = map[int]string{
	ErrUnknownExtension:      "Unsupported file type.",
	ErrMissingExtension:      "The file has no extension, so its type cannot be determined.",
	ErrCompressionNotAllowed: "Only images and videos can be compressed.",
	ErrCrossCategoryTarget:   "The selected output format does not belong to the file's category.",
	ErrNoDocumentBackend:     "Document conversion is not available.",

	ErrEmptySourcePath:   "Please select a file.",
	ErrSourceNotFound:    "The selected file does not exist.",
	ErrQualityOutOfRange: "Compression quality must be between 1 and 100.",
	ErrEmptyTargetFormat: "Please select a valid output format.",
	ErrInvalidContainer:  "Download format must be webm, mp4 or audio.",
	ErrEmptyURL:          "Please enter a video URL.",
	ErrInvalidGPUCodec:   "Unknown hardware encoder.",
	ErrInvalidTransition: "That action is not available right now.",
	ErrInvalidConfig:     "The configuration file could not be read.",

	ErrImageConversionFailed: "Error converting image.",
	ErrAudioConversionFailed: "Error converting audio.",
	ErrVideoConversionFailed: "Error converting video.",

	ErrImageCompressionFailed: "Error compressing image.",
	ErrVideoCompressionFailed: "Error compressing video.",

	ErrDownloadFailed:       "Download failed.",
	ErrDownloadNoOutput:     "The download finished but no output file was reported.",
	ErrAudioExtractFailed:   "Error converting the download to MP3.",
	ErrGPUPostProcessFailed: "MP4 conversion with GPU acceleration failed.",

	ErrEncoderStartFailed: "The encoder could not be started.",
	ErrEncoderNonZeroExit: "The encoder reported a failure.",

	ErrBinaryNotFound:          "A required program (ffmpeg, ffprobe or yt-dlp) was not found.",
	ErrOutputDirCreationFailed: "The output folder could not be created.",
	ErrProbeFailed:             "The media file could not be inspected.",
	ErrDownloadDirUnresolved:   "Unable to determine the download path.",
}

// GetErrorMessage returns the user-facing message for an error code.
func GetErrorMessage(code int) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return "Unknown error."
}
