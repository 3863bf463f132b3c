package ingest

import "github.com/neomantra/pointline"

// AssignLineage stamps file_id (constant) and file_seq (the row's
// position within this file, 0-based) onto a validated frame, unless the
// parser already emitted its own file_seq — some vendor formats carry a
// native monotonic sequence number (e.g. quant360's appl_seq_num) that
// must be preserved as the tie-break key instead of row position (§4.E
// step 10, §3 "Lineage").
func AssignLineage(df *pointline.Frame, fileID int64) *pointline.Frame {
	n := df.NumRows()
	fileIDCol := make([]int64, n)
	for i := range fileIDCol {
		fileIDCol[i] = fileID
	}
	out := df.WithColumn(pointline.NewColumn("file_id", fileIDCol))
	if out.Has("file_seq") {
		return out
	}
	fileSeq := make([]int64, n)
	for i := range fileSeq {
		fileSeq[i] = int64(i)
	}
	return out.WithColumn(pointline.NewColumn("file_seq", fileSeq))
}
