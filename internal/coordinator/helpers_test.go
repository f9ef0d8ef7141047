package coordinator

import "os"

// writeAbortedTemp stages a half-written temp file as a crashed writer
// would leave it.
func writeAbortedTemp(path string) error {
	return os.WriteFile(path, []byte(`[{"work_item_id": "wi-torn", "work_`), 0o644)
}
