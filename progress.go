package slideinfo

// ProgressEvent reports decompression of a wrapped container during Open.
type ProgressEvent struct {
	// Path is the slide being opened.
	Path string
	// BytesRead is the cumulative compressed bytes consumed so far.
	BytesRead int64
	// TotalBytes is the compressed file size.
	TotalBytes int64
}

// ProgressCallback is called while a compressed container is spooled.
// Plain containers never trigger it.
type ProgressCallback func(event ProgressEvent)
