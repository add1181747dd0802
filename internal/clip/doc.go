// Package clip implements the scroll-driven content swap engine.
//
// A band is a fixed element whose content exists in several variants, each
// a ClipTarget stacked over the band. Page sections are tagged with variant
// names. Whenever the page scrolls, resizes or a tracked element changes
// size, the engine recomputes, at most once per frame, how much of the band
// each section overlaps and clips every variant to exactly the rows its
// sections cover. The default variant fills the uncovered gap.
//
// Basic usage:
//
//	eng, err := clip.New(clip.Config{
//		Band:     band,
//		Window:   win,
//		Frames:   loop,
//		Targets:  []clip.Target{{Name: "default", Element: def, Default: true}, {Name: "dark", Element: dark}},
//		Sections: sections,
//		OnChange: func(active []core.ActiveVariant) { ... },
//	})
//	...
//	eng.Destroy()
//
// The engine is not safe for concurrent use. Every method, and every
// listener it registers, must run on the goroutine that delivers frame
// callbacks (see schedule.Loop).
package clip
