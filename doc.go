// Package inkframe implements the update-and-render cycle of a battery-powered
// e-paper photo frame.
//
// Each wake cycle loads the device record, asks the remote endpoint for the
// current image with a conditional GET (If-None-Match carrying the last ETag),
// commits a fresh body atomically under a name chosen by its Content-Disposition
// suffix, paints it on the bistable panel and saves the new ETag. Panels keep
// their image without power, so "nothing to do" simply leaves the previous frame
// on glass.
//
// Supported artifacts
//   - latest.dithered.jpg: JPEG already dithered by the server, painted as is
//   - latest.jpg: JPEG dithered on the device with Floyd-Steinberg
//   - latest.bin: 64-byte header + 4-bit packed palette indices, low nibble first
//
// Every failure is terminal for the current cycle only. Nothing is retried
// within a cycle; the Scheduler simply tries again after its sleep.
package inkframe
