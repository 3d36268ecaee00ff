// Package domain models tropical-cyclone track data and the pure geometry used
// to draw it on a world map.
//
// # Data Source
//
// Storm tracks follow the IBTrACS (International Best Track Archive for Climate
// Stewardship) layout served by the upstream storm API at
// GET {base}/storms/{YYYY}/{MM}. One StormTrack carries storm metadata plus
// parallel per-observation series (lat, lon, wind, mslp, speed, ...), one
// entry per 3- or 6-hourly fix.
//
// # Conventions
//
// Longitude:
//
//	Raw longitudes may use the 0–360° convention (e.g. 190 = 170°W).
//	[ProjectLon] maps them into [-180, 180]; exactly 180 is left unchanged.
//
// Missing values:
//
//	Wind, pressure and speed entries may be JSON null; NaN is treated the same
//	way. A series shorter than the lat/lon track is treated as absent as a
//	whole. Accessors return (value, ok) and callers fall back to "N/A", 0 or the
//	minimum-opacity style.
//
// Units:
//
//	wind  - maximum sustained wind, knots
//	mslp  - minimum central pressure, hPa
//	speed - storm forward speed, knots
//
// # Anti-meridian handling
//
// A track that crosses ±180° would otherwise be drawn as a line wrapping across
// the whole map. [SegmentTrack] splits the track wherever consecutive projected
// longitudes differ by more than 180°. The test is a raw angular heuristic: a
// data gap that jumps more than half the globe is split the same way.
// [Bounds] is a plain coordinate-wise box and is not adjusted for the date line.
package domain
