/*
go-stabtrack post-processes per-frame object detections from a vision
inference runtime.  It keeps two coupled engines per video source: an
adaptive region-of-interest tracker that focuses future inference on the
area most likely to contain activity, and a temporal stabilizer that turns
flickering raw detections into a confirmed, stable stream suitable for
downstream alerting.

The library is synchronous and never performs I/O.  The host runtime calls
Handler.ProcessFrame once per processed frame with that frame's detections
and geometry; frame acquisition, model execution, transport and
configuration loading all live with the host.

See the roi, preprocess and stabilize packages for the individual engines.
*/
package stabtrack
