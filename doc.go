/*
go-trafficwatch turns the per-frame output of an external object
detector/tracker (bounding boxes, track ids, classes, confidence scores)
into traffic semantics: de-duplicated detections, directional zone-crossing
counts, per-vehicle speed estimates and dwell-time intrusion alerts.

The detector/tracker itself is treated as a black box.  Feed each frame's
detections into a Pipeline along with the frame timestamp and it returns a
FrameResult carrying the kept detections, counter deltas, fleet speed
statistics and any alert events raised on that frame.

See example code and usage in the example subdirectory.
*/
package trafficwatch
