// Package harvest collects a quota of unique image references from a
// scrolling search results page.
//
// The Harvester never touches a browser directly. It drives anything that
// implements Driver: navigate to the search target, scroll to the bottom,
// enumerate thumbnails, expand one, then read the references off the
// enlarged candidates that appear.
//
// Quota accounting:
//   - found counts unique references added to the result
//   - skipped counts duplicate candidates seen along the way
//   - the target is requested + skipped, so duplicates never shrink the yield
//
// The loop runs while found + skipped is below the target. Each round only
// looks at thumbnails in [found+skipped, target), which keeps already handled
// thumbnails from being expanded twice.
//
// Usage:
//
//	h := harvest.New(driver, time.Second, harvest.WithLogger(log))
//	res, err := h.Harvest(ctx, 50, harvest.ImageSearch("Cubism Painting"))
//	if err != nil {
//	    return err
//	}
//	for _, ref := range res.References {
//	    fmt.Println(ref)
//	}
//
// Cancelling ctx stops the harvest at the next interaction or settle wait and
// returns the references gathered so far together with ctx.Err().
package harvest
