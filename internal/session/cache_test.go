package session_test

import (
	"testing"

	"gasapp/internal/session"
	"gasapp/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestOrderCacheReplaceAll_DeduplicatesByID(t *testing.T) {
	c := session.NewOrderCache()

	c.ReplaceAll([]usecase.OrderOutput{
		{ID: "o1", Status: "pending"},
		{ID: "o2", Status: "confirmed"},
		//同じIDの二重挿入は最初の1件だけ残る
		{ID: "o1", Status: "delivered"},
	})

	assert.Equal(t, 2, c.Len())
	got, ok := c.Get("o1")
	assert.True(t, ok)
	assert.Equal(t, "pending", got.Status)
}

func TestOrderCacheReplaceAll_DropsPreviousContents(t *testing.T) {
	c := session.NewOrderCache()
	c.ReplaceAll([]usecase.OrderOutput{{ID: "o1"}, {ID: "o2"}})

	c.ReplaceAll([]usecase.OrderOutput{{ID: "o3"}})

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("o1")
	assert.False(t, ok)
	_, ok = c.Get("o3")
	assert.True(t, ok)
}

func TestOrderCachePatch(t *testing.T) {
	c := session.NewOrderCache()
	c.ReplaceAll([]usecase.OrderOutput{
		{ID: "o1", Status: "pending"},
		{ID: "o2", Status: "pending"},
	})

	c.Patch(usecase.OrderOutput{ID: "o2", Status: "confirmed"})

	got, _ := c.Get("o2")
	assert.Equal(t, "confirmed", got.Status)
	//他のエントリは触らない
	got, _ = c.Get("o1")
	assert.Equal(t, "pending", got.Status)

	//未知のIDは無視（追加しない）
	c.Patch(usecase.OrderOutput{ID: "o9", Status: "pending"})
	assert.Equal(t, 2, c.Len())
}

func TestOrderCacheSnapshot_IsACopy(t *testing.T) {
	c := session.NewOrderCache()
	c.ReplaceAll([]usecase.OrderOutput{{ID: "o1", Status: "pending"}})

	snap := c.Snapshot()
	snap[0].Status = "cancelled"

	got, _ := c.Get("o1")
	assert.Equal(t, "pending", got.Status)
}
