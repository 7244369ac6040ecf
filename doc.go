// Package mimir is the Composition Root for the Mimir notes application.
//
// It connects the state layer (notes, the group hierarchy and the lazy
// loader) with the filesystem store using the Hexagonal Architecture
// pattern. Front ends (the CLI, a desktop shell) talk to a *state.State and
// never touch files directly.
//
// Storage layout:
//
//   - One JSON file per note, named "<uuid>.json".
//   - groups.json holds the whole group collection.
//   - persistent_text.txt holds the scratchpad.
//   - .mimir/index.json caches note metadata, validated by modification time.
//
// Usage:
//
//	st, err := mimir.New("./notes",
//		mimir.WithLoadMode(mimir.LoadAuto),
//		mimir.WithLogger(logger),
//	)
//
//	note, err := st.CreateNote(ctx, "Title", "content", core.NoRef)
package mimir
