// Package fanout runs one call per item in parallel with a concurrency cap.
//
// The service issues one taps request per pub in a city once the pub list is
// known. Map bounds that fan-out to a fixed number of in-flight calls, waits
// for every call to finish, and reports each outcome at the index of its
// input. A failed item never cancels its siblings; the caller decides what a
// partial result means.
//
// Example usage:
//
//	results := fanout.Map(ctx, fanout.DefaultConfig(), pubs,
//		func(ctx context.Context, pub catalog.Pub) ([]catalog.Tap, error) {
//			return catalogClient.TapsInPub(ctx, pub.ID)
//		})
//
//	for i, r := range results {
//		if r.Err != nil {
//			log.Warn().Err(r.Err).Str("pub", pubs[i].Name).Msg("skipping pub")
//			continue
//		}
//		// use r.Value
//	}
package fanout
