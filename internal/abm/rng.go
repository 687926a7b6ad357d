package abm

// splitMix64 is the finalizer of the SplitMix64 generator. It is used to
// derive well-distributed per-path seeds from (root seed, path index) so
// every path owns an independently seeded generator and reproducibility
// does not depend on the order paths are scheduled in.
func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// pathSeed derives the sub-seed for one path from the request root seed.
func pathSeed(root int64, index int) int64 {
	// Offset the index so path 0 with root 0 does not map to the raw root.
	return int64(splitMix64(uint64(root) ^ splitMix64(uint64(index)+1)))
}
