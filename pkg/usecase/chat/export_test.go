package chat

// Test helpers exposing private functions to the external test package

var (
	CompressHistoryForTest   = compressHistory
	SummarizeContentsForTest = summarizeContents
	IsTokenLimitErrorForTest = isTokenLimitError
	DropHistoryForTest       = dropHistory
	ShrinkHistoryForTest     = shrinkHistory
	SplitIndexForTest        = splitIndex
)
