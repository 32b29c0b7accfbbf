package utils

// PartitionMap splits an index range [0, MaxIndex) into ParallelDegree
// contiguous buckets. Bucket sizes differ by at most one.
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// GetBucket returns the bucket holding index k along with its range, or a
// bucket number of -1 when k is outside [0, MaxIndex).
func (pm *PartitionMap) GetBucket(k int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(k)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(k int) (tryCount, bucketNum, min, max int) {
	if k < 0 || k >= pm.MaxIndex {
		return 0, -1, 0, 0
	}
	// Initial guess
	bucketNum = int(float64(pm.ParallelDegree*k) / float64(pm.MaxIndex))
	for !(pm.Partitions[bucketNum][0] <= k && pm.Partitions[bucketNum][1] > k) {
		if pm.Partitions[bucketNum][0] > k {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.ParallelDegree {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

// GetLocalK converts a global index into its bucket-local offset.
func (pm *PartitionMap) GetLocalK(baseK int) (k, Kmax, bn int) {
	var (
		kmin, kmax int
	)
	bn, kmin, kmax = pm.GetBucket(baseK)
	Kmax = kmax - kmin
	k = baseK - kmin
	return
}

func (pm *PartitionMap) GetGlobalK(kLocal, bn int) (kGlobal int) {
	if bn == -1 {
		kGlobal = kLocal
		return
	}
	kGlobal = pm.Partitions[bn][0] + kLocal
	return
}

// Overlap returns the part of bucket bn that falls inside [lo, hi).
func (pm *PartitionMap) Overlap(bn, lo, hi int) (kMin, kMax int) {
	kMin, kMax = pm.GetBucketRange(bn)
	if lo > kMin {
		kMin = lo
	}
	if hi < kMax {
		kMax = hi
	}
	if kMax < kMin {
		kMax = kMin
	}
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into c.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
