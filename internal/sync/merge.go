package sync

import "documind/internal/model"

// MergeResult is the outcome of folding a remote list into a local one.
type MergeResult struct {
	// Documents is the merged list: newly discovered remote documents first,
	// in remote order, followed by the local list with matches replaced.
	Documents []model.Document
	// Changed holds the inserted and replaced documents, the ones that need
	// to be written back to the local store.
	Changed  []model.Document
	Inserted int
	Replaced int
}

// Merge folds remote into local without mutating either. A remote document
// whose id exists locally replaces the local entry at the same position;
// unmatched remote documents are inserted at the head. Local-only documents
// are kept, so the result is never shorter than local. When remote repeats an
// id, the last occurrence wins.
func Merge(local, remote []model.Document) MergeResult {
	merged := make([]model.Document, len(local))
	copy(merged, local)

	localIdx := make(map[string]int, len(local))
	for i, d := range local {
		localIdx[d.ID] = i
	}

	var (
		inserted    []model.Document
		insertedIdx = make(map[string]int)
		replacedIDs = make(map[string]struct{})
	)
	for _, r := range remote {
		if i, ok := localIdx[r.ID]; ok {
			merged[i] = r
			replacedIDs[r.ID] = struct{}{}
			continue
		}
		if j, ok := insertedIdx[r.ID]; ok {
			inserted[j] = r
			continue
		}
		insertedIdx[r.ID] = len(inserted)
		inserted = append(inserted, r)
	}

	res := MergeResult{
		Documents: append(inserted, merged...),
		Inserted:  len(inserted),
		Replaced:  len(replacedIDs),
	}
	res.Changed = make([]model.Document, 0, res.Inserted+res.Replaced)
	res.Changed = append(res.Changed, inserted...)
	for _, d := range merged {
		if _, ok := replacedIDs[d.ID]; ok {
			res.Changed = append(res.Changed, d)
		}
	}
	return res
}
