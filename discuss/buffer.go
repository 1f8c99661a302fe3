package discuss

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultReconciledRetention is how many reconciled local ids a Buffer keeps resolvable.
const DefaultReconciledRetention = 256

// Buffer holds comments created locally that the persistence layer has not confirmed yet.
// Mutations and reads are serialized per post; posts never share a lock.
//
// Only pending comments are tracked per post. Once a comment is reconciled its local id stays
// resolvable to the server id in a bounded LRU, so replies that still reference the local id can
// be attached. The least recently used mappings are dropped first.
type Buffer struct {
	mu     sync.Mutex
	posts  map[string]*postBuffer
	owners map[LocalID]string

	reconciled *lru.Cache[LocalID, reconciledComment]
}

type postBuffer struct {
	mu       sync.RWMutex
	postID   string
	entries  []Comment
	bindings map[LocalID]ServerID
	// detached is set once the buffer is removed from the registry. Writers that raced with the
	// removal look the post up again.
	detached bool
}

type reconciledComment struct {
	postID   string
	serverID ServerID
}

func NewBuffer() *Buffer {
	return newBuffer(DefaultReconciledRetention)
}

func newBuffer(retention int) *Buffer {
	reconciled, err := lru.New[LocalID, reconciledComment](retention)
	if err != nil {
		panic(fmt.Sprintf("failed to create reconciled cache: %v", err))
	}

	return &Buffer{
		posts:      make(map[string]*postBuffer),
		owners:     make(map[LocalID]string),
		reconciled: reconciled,
	}
}

func newLocalID() LocalID {
	return LocalID(LocalIDPrefix + uuid.NewString())
}

// Add appends a draft to its post's buffer and returns its local id. A draft without an id gets
// a fresh one. Parent references are not validated here.
func (b *Buffer) Add(comment Comment) (LocalID, error) {
	var localID LocalID

	switch id := comment.ID.(type) {
	case nil:
		localID = newLocalID()
	case LocalID:
		if !strings.HasPrefix(string(id), LocalIDPrefix) {
			return "", &InvalidLocalIDError{ID: id}
		}

		localID = id
	case ServerID:
		return "", &PersistedCommentError{ID: id}
	}

	comment.ID = localID

	for {
		b.mu.Lock()
		pb := b.postLocked(comment.PostID)
		b.mu.Unlock()

		pb.mu.Lock()

		if pb.detached {
			pb.mu.Unlock()

			continue
		}

		err := b.claim(localID, comment.PostID)
		if err != nil {
			pb.mu.Unlock()

			return "", err
		}

		pb.entries = append(pb.entries, comment)
		pb.mu.Unlock()

		return localID, nil
	}
}

func (b *Buffer) claim(localID LocalID, postID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.owners[localID]; exists || b.reconciled.Contains(localID) {
		return &DuplicateLocalIDError{ID: localID}
	}

	b.owners[localID] = postID

	return nil
}

// Bind records the server id a pending comment is going to be persisted under.
func (b *Buffer) Bind(localID LocalID, serverID ServerID) {
	pb := b.owner(localID)
	if pb == nil {
		return
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.indexOf(localID) < 0 {
		return
	}

	pb.bindings[localID] = serverID
}

// Reconcile removes a pending comment once its persisted counterpart exists. Reconciling an
// unknown or already reconciled local id does nothing.
func (b *Buffer) Reconcile(localID LocalID, persisted Comment) {
	pb, ok := b.remove(localID)
	if !ok {
		return
	}

	if serverID, isServerID := persisted.ID.(ServerID); isServerID {
		b.reconciled.Add(localID, reconciledComment{postID: pb.postID, serverID: serverID})
	}

	b.prune(pb)
}

// Discard drops a pending comment without a persisted counterpart.
func (b *Buffer) Discard(localID LocalID) {
	pb, ok := b.remove(localID)
	if !ok {
		return
	}

	b.prune(pb)
}

// remove takes a pending comment out of its post's buffer and forgets its owner.
func (b *Buffer) remove(localID LocalID) (*postBuffer, bool) {
	pb := b.owner(localID)
	if pb == nil {
		return nil, false
	}

	pb.mu.Lock()

	i := pb.indexOf(localID)
	if i < 0 {
		pb.mu.Unlock()

		return nil, false
	}

	pb.entries = slices.Delete(pb.entries, i, i+1)
	delete(pb.bindings, localID)

	b.mu.Lock()
	delete(b.owners, localID)
	b.mu.Unlock()

	pb.mu.Unlock()

	return pb, true
}

// prune unregisters an empty post buffer. A buffer that is busy is left for a later call.
func (b *Buffer) prune(pb *postBuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.posts[pb.postID] != pb || !pb.mu.TryLock() {
		return
	}
	defer pb.mu.Unlock()

	if len(pb.entries) > 0 {
		return
	}

	delete(b.posts, pb.postID)
	pb.detached = true
}

// Clear drops every pending comment of a post and forgets its reconciled local ids.
func (b *Buffer) Clear(postID string) {
	b.mu.Lock()

	pb, ok := b.posts[postID]
	if ok {
		delete(b.posts, postID)
	}

	b.mu.Unlock()

	var localIDs []LocalID

	if ok {
		pb.mu.Lock()

		for _, entry := range pb.entries {
			if localID, isLocalID := entry.ID.(LocalID); isLocalID {
				localIDs = append(localIDs, localID)
			}
		}

		pb.entries = nil
		pb.bindings = make(map[LocalID]ServerID)
		pb.detached = true

		pb.mu.Unlock()
	}

	b.mu.Lock()

	for _, localID := range localIDs {
		delete(b.owners, localID)
	}

	b.mu.Unlock()

	for _, localID := range b.reconciled.Keys() {
		if reconciled, found := b.reconciled.Peek(localID); found && reconciled.postID == postID {
			b.reconciled.Remove(localID)
		}
	}
}

// Resolve returns the server id a local id was bound or reconciled to.
func (b *Buffer) Resolve(localID LocalID) (ServerID, bool) {
	if pb := b.owner(localID); pb != nil {
		pb.mu.RLock()
		serverID, ok := pb.bindings[localID]
		pb.mu.RUnlock()

		if ok {
			return serverID, true
		}
	}

	reconciled, ok := b.reconciled.Get(localID)

	return reconciled.serverID, ok
}

// Snapshot returns a copy of the pending comments of a post in insertion order.
func (b *Buffer) Snapshot(postID string) []Comment {
	var entries []Comment

	b.View(postID, func(pending []Comment, _ func(LocalID) (ServerID, bool)) {
		entries = slices.Clone(pending)
	})

	return entries
}

// View calls fn while holding the post's read lock. resolve maps a local id of the post to the
// server id it was bound or reconciled to. fn must not retain or modify pending and must not call
// back into the Buffer for the same post.
func (b *Buffer) View(postID string, fn func(pending []Comment, resolve func(LocalID) (ServerID, bool))) {
	b.mu.Lock()
	pb, ok := b.posts[postID]
	b.mu.Unlock()

	if !ok {
		fn(nil, b.resolveReconciled)

		return
	}

	pb.mu.RLock()
	defer pb.mu.RUnlock()

	fn(pb.entries, func(localID LocalID) (ServerID, bool) {
		if serverID, bound := pb.bindings[localID]; bound {
			return serverID, true
		}

		return b.resolveReconciled(localID)
	})
}

func (b *Buffer) resolveReconciled(localID LocalID) (ServerID, bool) {
	reconciled, ok := b.reconciled.Peek(localID)

	return reconciled.serverID, ok
}

func (b *Buffer) postLocked(postID string) *postBuffer {
	pb, ok := b.posts[postID]
	if !ok {
		pb = &postBuffer{
			postID:   postID,
			bindings: make(map[LocalID]ServerID),
		}
		b.posts[postID] = pb
	}

	return pb
}

func (b *Buffer) owner(localID LocalID) *postBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()

	postID, ok := b.owners[localID]
	if !ok {
		return nil
	}

	return b.posts[postID]
}

func (pb *postBuffer) indexOf(localID LocalID) int {
	return slices.IndexFunc(pb.entries, func(c Comment) bool {
		return c.ID == localID
	})
}
