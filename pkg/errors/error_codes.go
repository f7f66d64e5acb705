package errors

// Error codes grouped by component.
const (
	// Format classification (1000-1099)
	ErrUnknownExtension      = 1000
	ErrMissingExtension      = 1001
	ErrCompressionNotAllowed = 1002
	ErrCrossCategoryTarget   = 1003
	ErrNoDocumentBackend     = 1004

	// Request validation (1100-1199)
	ErrEmptySourcePath   = 1100
	ErrSourceNotFound    = 1101
	ErrQualityOutOfRange = 1102
	ErrEmptyTargetFormat = 1103
	ErrInvalidContainer  = 1104
	ErrEmptyURL          = 1105
	ErrInvalidGPUCodec   = 1106
	ErrInvalidTransition = 1107
	ErrInvalidConfig     = 1108

	// Conversion (1200-1299)
	ErrImageConversionFailed = 1200
	ErrAudioConversionFailed = 1201
	ErrVideoConversionFailed = 1202

	// Compression (1300-1399)
	ErrImageCompressionFailed = 1300
	ErrVideoCompressionFailed = 1301

	// Download (1400-1499)
	ErrDownloadFailed       = 1400
	ErrDownloadNoOutput     = 1401
	ErrAudioExtractFailed   = 1402
	ErrGPUPostProcessFailed = 1403

	// External encoder (1500-1599)
	ErrEncoderStartFailed = 1500
	ErrEncoderNonZeroExit = 1501

	// System (1600-1699)
	ErrBinaryNotFound          = 1600
	ErrOutputDirCreationFailed = 1601
	ErrProbeFailed             = 1602
	ErrDownloadDirUnresolved   = 1603
)
