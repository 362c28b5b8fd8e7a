// SPDX-License-Identifier: EPL-2.0

package schedule

import "golang.org/x/sys/cpu"

// TimeQueueGrainSize is the number of frames between successive time stamps.
// Smaller grains refresh the displayed position more often at the cost of more
// stamps.
const TimeQueueGrainSize = 2000

type cursor struct {
	index     int
	remainder int
}

// TimeQueue is a circular buffer of track times, one for every
// TimeQueueGrainSize frames written to the playback ring buffer.
//
// The producer is the goroutine that fills the ring buffer; the consumer is
// the device callback that drains it. The ring buffer's own synchronization
// keeps the producer from overwriting stamps the consumer has not reached,
// so the queue never checks for space. Stamps for a block must be produced
// before the block is published to the ring buffer.
//
// The consumer's result tells the main goroutine which track time was last
// played, for drawing the play head.
type TimeQueue struct {
	data     []float64
	lastTime float64

	_    cpu.CacheLinePad
	head cursor // consumer only
	_    cpu.CacheLinePad
	tail cursor // producer only
	_    cpu.CacheLinePad
}

// Allocate sizes the queue for a ring buffer holding bufferFrames frames.
func (q *TimeQueue) Allocate(bufferFrames int) {
	size := 1 + (max(bufferFrames, 0)+TimeQueueGrainSize-1)/TimeQueueGrainSize
	q.data = make([]float64, size)
	q.head, q.tail = cursor{}, cursor{}
}

// Release drops the backing storage. An unbacked queue is used for recording
// without playback, where the consumer counts time linearly instead.
func (q *TimeQueue) Release() {
	q.data = nil
}

// Backed reports whether the queue has storage.
func (q *TimeQueue) Backed() bool {
	return q.data != nil
}

// Len returns the number of stamp slots.
func (q *TimeQueue) Len() int {
	return len(q.data)
}

// Producer records stamps for nSamples more frames, computing each with
// s.AdvancedTrackTime from the previous one.
func (q *TimeQueue) Producer(s *Schedule, rate, speed float64, nSamples int) {
	if q.data == nil {
		return
	}

	size := len(q.data)
	index := q.tail.index
	t := q.lastTime
	remainder := q.tail.remainder
	space := TimeQueueGrainSize - remainder

	for nSamples >= space {
		t = s.AdvancedTrackTime(t, float64(space)/rate, speed)
		index = (index + 1) % size
		q.data[index] = t
		nSamples -= space
		remainder = 0
		space = TimeQueueGrainSize
	}

	// last odd lot
	if nSamples > 0 {
		t = s.AdvancedTrackTime(t, float64(nSamples)/rate, speed)
	}

	q.lastTime = t
	q.tail.remainder = remainder + nSamples
	q.tail.index = index
}

// Consumer advances past nSamples played frames and returns the track time
// stamped at the new position.
func (q *TimeQueue) Consumer(nSamples int, rate float64) float64 {
	if q.data == nil {
		q.lastTime += float64(nSamples) / rate
		return q.lastTime
	}

	size := len(q.data)
	remainder := q.head.remainder
	space := TimeQueueGrainSize - remainder
	if nSamples >= space {
		remainder = 0
		q.head.index = (q.head.index + 1) % size
		nSamples -= space
		if nSamples >= TimeQueueGrainSize {
			q.head.index = (q.head.index + nSamples/TimeQueueGrainSize) % size
			nSamples %= TimeQueueGrainSize
		}
	}
	q.head.remainder = remainder + nSamples

	return q.data[q.head.index]
}

// Prime empties the queue and makes time the last produced stamp. Both the
// producer and the consumer must be stopped.
func (q *TimeQueue) Prime(time float64) {
	q.head, q.tail = cursor{}, cursor{}
	q.lastTime = time
	if q.data != nil {
		q.data[0] = time
	}
}

// Restamp makes time the starting point for the next stamps, after a seek.
// Producer only.
func (q *TimeQueue) Restamp(time float64) {
	q.lastTime = time
}

// LastTime returns the track time of the last frame stamped. Producer only.
func (q *TimeQueue) LastTime() float64 {
	return q.lastTime
}
