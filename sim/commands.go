package sim

import "github.com/plus3/gravgrid/board"

// Commands buffers structural changes to the board until the end of a frame, so
// systems never delete blocks out from under an iteration in progress.
type Commands struct {
	deletes []board.BlockId
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

// Delete queues a block deletion.
func (c *Commands) Delete(id board.BlockId) {
	c.deletes = append(c.deletes, id)
}

// Defer queues a function to run after the deletions of this flush.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.deletes) + len(c.defers)
}

// Flush applies queued deletions, then deferred functions, and resets the buffer.
// It returns the ids that were actually destroyed, in queue order.
func (c *Commands) Flush(b *board.Board) []board.BlockId {
	var deleted []board.BlockId
	for _, id := range c.deletes {
		if b.Delete(id) {
			deleted = append(deleted, id)
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	c.deletes = c.deletes[:0]
	c.defers = c.defers[:0]
	return deleted
}
