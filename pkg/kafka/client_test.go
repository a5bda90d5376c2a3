package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taskhub-go/pkg/tasks"
)

// fakeReader 按顺序返回预置消息，耗尽后返回 context.Canceled。
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

// scriptedProcessor 让指定任务先失败 failures[job] 次。
type scriptedProcessor struct {
	failures map[string]int
	calls    []string
}

func (p *scriptedProcessor) Process(_ context.Context, task tasks.UploadJobTask) error {
	p.calls = append(p.calls, task.JobOid)
	if p.failures[task.JobOid] > 0 {
		p.failures[task.JobOid]--
		return errors.New("file not ready")
	}
	return nil
}

type memoryCounter struct {
	counts map[string]int64
	err    error
}

func (c *memoryCounter) Incr(_ context.Context, jobOid string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.counts[jobOid]++
	return c.counts[jobOid], nil
}

func (c *memoryCounter) Reset(_ context.Context, jobOid string) error {
	delete(c.counts, jobOid)
	return nil
}

func jobMessage(t *testing.T, offset int64, jobOid string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(tasks.UploadJobTask{JobOid: jobOid, FolderName: "Test", FilePath: "/srv/" + jobOid})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(jobOid), Value: value}
}

func newTestConsumer(reader *fakeReader, processor *scriptedProcessor, counter *memoryCounter) *consumer {
	return &consumer{reader: reader, processor: processor, attempts: counter}
}

func TestConsumer_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Should retry a failed job before moving on", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{jobMessage(t, 1, "a"), jobMessage(t, 2, "b")}}
		processor := &scriptedProcessor{failures: map[string]int{"a": 2}}
		counter := &memoryCounter{counts: map[string]int64{}}

		newTestConsumer(reader, processor, counter).run(ctx)

		assert.Equal(t, []string{"a", "a", "a", "b"}, processor.calls)
		assert.Equal(t, []int64{1, 2}, reader.committed)
		assert.Empty(t, counter.counts)
	})

	t.Run("Should give up after max attempts and commit", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{jobMessage(t, 7, "a"), jobMessage(t, 8, "b")}}
		processor := &scriptedProcessor{failures: map[string]int{"a": 10}}
		counter := &memoryCounter{counts: map[string]int64{}}

		newTestConsumer(reader, processor, counter).run(ctx)

		assert.Equal(t, []string{"a", "a", "a", "b"}, processor.calls)
		assert.Equal(t, []int64{7, 8}, reader.committed)
	})

	t.Run("Should count attempts left over from a previous run", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{jobMessage(t, 3, "a")}}
		processor := &scriptedProcessor{failures: map[string]int{"a": 10}}
		counter := &memoryCounter{counts: map[string]int64{"a": 2}}

		newTestConsumer(reader, processor, counter).run(ctx)

		assert.Equal(t, []string{"a"}, processor.calls)
		assert.Equal(t, []int64{3}, reader.committed)
	})

	t.Run("Should fall back to local count when the counter fails", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{jobMessage(t, 4, "a")}}
		processor := &scriptedProcessor{failures: map[string]int{"a": 10}}
		counter := &memoryCounter{counts: map[string]int64{}, err: errors.New("redis down")}

		newTestConsumer(reader, processor, counter).run(ctx)

		assert.Len(t, processor.calls, maxAttempts)
		assert.Equal(t, []int64{4}, reader.committed)
	})

	t.Run("Should skip malformed messages", func(t *testing.T) {
		reader := &fakeReader{messages: []kafka.Message{
			{Offset: 5, Value: []byte("{not json")},
			jobMessage(t, 6, "b"),
		}}
		processor := &scriptedProcessor{failures: map[string]int{}}
		counter := &memoryCounter{counts: map[string]int64{}}

		newTestConsumer(reader, processor, counter).run(ctx)

		assert.Equal(t, []string{"b"}, processor.calls)
		assert.Equal(t, []int64{5, 6}, reader.committed)
	})

	t.Run("Should stop without committing when cancelled during backoff", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		reader := &fakeReader{messages: []kafka.Message{jobMessage(t, 9, "a")}}
		processor := &scriptedProcessor{failures: map[string]int{"a": 10}}
		counter := &memoryCounter{counts: map[string]int64{}}

		c := newTestConsumer(reader, processor, counter)
		c.backoff = time.Hour
		c.run(cctx)

		assert.Equal(t, []string{"a"}, processor.calls)
		assert.Empty(t, reader.committed)
	})
}
