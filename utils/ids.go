package utils

// MaxIDsPerRequest is the most ids the API accepts in one list call.
const MaxIDsPerRequest = 50

// ChunkIDs splits ids into batches of at most size entries.
func ChunkIDs(ids []string, size int) [][]string {
	// if didn't find any ids, nothing to request
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 {
		size = MaxIDsPerRequest
	}

	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		// if not size more ids, then take the rest
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// UniqueIDs drops empty and repeated ids, keeping first-seen order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
