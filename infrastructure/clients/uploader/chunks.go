package uploader

// Chunk sizing bounds for chunked media uploads.
const (
	MinChunkSize     int64 = 5 * 1024 * 1024
	DefaultChunkSize int64 = 10 * 1024 * 1024
	MaxChunkSize     int64 = 64 * 1024 * 1024
	MaxChunkCount          = 1000
)

// CalculateChunks picks a chunk size for a file. Files under 5MB go up in a
// single chunk of their own size. Larger files start from the 10MB default,
// doubling until the chunk count fits under 1000, clamped to [5MB, 64MB].
func CalculateChunks(fileSize int64) (chunkSize int64, totalChunks int) {
	if fileSize <= 0 {
		return 0, 0
	}
	if fileSize < MinChunkSize {
		return fileSize, 1
	}
	chunkSize = DefaultChunkSize
	for chunkSize < MaxChunkSize && (fileSize+chunkSize-1)/chunkSize > MaxChunkCount {
		chunkSize *= 2
	}
	if chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	totalChunks = int((fileSize + chunkSize - 1) / chunkSize)
	return chunkSize, totalChunks
}
