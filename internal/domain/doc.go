// Package domain models GOES-16 fire-detection (hotspot) data.
//
// # Data Source
//
// Hotspots come from the GOES-16 ABI-L2-FDCF product (Fire/Hot Spot
// Characterization, full disk), published as netCDF-4 granules on the public
// `noaa-goes16` bucket roughly every ten minutes. Each granule carries the
// per-pixel arrays this pipeline consumes: Mask, DQF, Temp, Area and Power.
//
// # GOES Naming Conventions
//
// Granule names embed the start-of-scan instant:
//
//	OR_ABI-L2-FDCF-M6_G16_s20250321502000_e20250321509515_c20250321510004.nc
//	                      └ sYYYYDDDHHMMSSt: year, day-of-year, hour, minute,
//	                        second, tenth of second (the tenth is ignored).
//
// Day-of-year 1 is January 1st of that year. Times are UTC. See
// [ParseSceneTime].
//
// # Fire Classification
//
// The Mask array classifies every pixel. Only four codes count as confident
// fire detections (processed and saturated fire pixels, plus their temporally
// filtered variants):
//
//	10  processed fire
//	11  saturated fire
//	30  temporally filtered processed fire
//	31  temporally filtered saturated fire
//
// All other codes (cloud, water, missing, low-confidence) are discarded. A
// pixel additionally needs DQF == 0 ("good quality") to survive.
//
// Brightness temperature is gated adaptively: when a scene's minimum Temp sits
// strictly between 320 K and 400 K the product's dynamic range is already
// concentrated on hot pixels, and a further Temp > 300 K requirement weeds out
// marginal detections without starving scenes whose range is wide. See
// [AdaptiveTempThreshold].
//
// # Geometry
//
// Pixels are stored in the satellite's geostationary fixed grid. Records carry
// coordinates reprojected to SIRGAS 2000 (EPSG:4674), the datum used for South
// American spatial data, and are clipped to a fixed regional bounding box.
// Scan times are converted to America/Sao_Paulo before persistence. Pixels
// whose reprojected coordinate is non-finite (off the visible disk) can never
// satisfy the clip and are dropped rather than stored as null geometry; a
// null-geometry row could never match the (geometry, scene time) dedup key and
// would be re-inserted on every rerun.
package domain
