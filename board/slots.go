package board

import "iter"

const (
	chunkSize = 64
)

// slotStorage stores blocks in fixed-size chunks. Indices stay stable for the lifetime
// of a block; freed slots are reused with a bumped generation so old ids stop resolving.
type slotStorage struct {
	chunks      [][chunkSize]Block
	filled      [][chunkSize]bool
	generations [][chunkSize]uint32
	freeSlots   []int
	nextIndex   int
}

// append stores a block and returns its index and generation.
func (s *slotStorage) append(b Block) (int, uint32) {
	if len(s.freeSlots) > 0 {
		index := s.freeSlots[len(s.freeSlots)-1]
		s.freeSlots = s.freeSlots[:len(s.freeSlots)-1]

		chunkIdx := index / chunkSize
		slotIdx := index % chunkSize

		s.generations[chunkIdx][slotIdx]++
		s.chunks[chunkIdx][slotIdx] = b
		s.filled[chunkIdx][slotIdx] = true
		return index, s.generations[chunkIdx][slotIdx]
	}

	index := s.nextIndex
	s.nextIndex++

	chunkIdx := index / chunkSize
	slotIdx := index % chunkSize

	if chunkIdx >= len(s.chunks) {
		s.chunks = append(s.chunks, [chunkSize]Block{})
		s.filled = append(s.filled, [chunkSize]bool{})
		s.generations = append(s.generations, [chunkSize]uint32{})
	}

	s.generations[chunkIdx][slotIdx] = 1
	s.chunks[chunkIdx][slotIdx] = b
	s.filled[chunkIdx][slotIdx] = true
	return index, 1
}

// get returns a pointer to the block at index if the slot is filled and the
// generation matches.
func (s *slotStorage) get(index int, generation uint32) *Block {
	if index < 0 || index >= s.nextIndex {
		return nil
	}

	chunkIdx := index / chunkSize
	slotIdx := index % chunkSize

	if !s.filled[chunkIdx][slotIdx] || s.generations[chunkIdx][slotIdx] != generation {
		return nil
	}

	return &s.chunks[chunkIdx][slotIdx]
}

// at returns the block at index regardless of generation.
func (s *slotStorage) at(index int) *Block {
	chunkIdx := index / chunkSize
	slotIdx := index % chunkSize
	return &s.chunks[chunkIdx][slotIdx]
}

// delete marks a slot as empty.
func (s *slotStorage) delete(index int) {
	if index < 0 || index >= s.nextIndex {
		return
	}

	chunkIdx := index / chunkSize
	slotIdx := index % chunkSize

	if s.filled[chunkIdx][slotIdx] {
		s.filled[chunkIdx][slotIdx] = false
		s.chunks[chunkIdx][slotIdx] = Block{}
		s.freeSlots = append(s.freeSlots, index)
	}
}

// len returns the number of filled slots.
func (s *slotStorage) len() int {
	return s.nextIndex - len(s.freeSlots)
}

// iter yields the indices of filled slots in index order.
func (s *slotStorage) iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < s.nextIndex; i++ {
			chunkIdx := i / chunkSize
			slotIdx := i % chunkSize

			if s.filled[chunkIdx][slotIdx] {
				if !yield(i) {
					return
				}
			}
		}
	}
}
