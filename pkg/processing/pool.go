package processing

import (
	"sync"
	"time"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/scene"
)

// ProcessResult is the result of processing a frame
type ProcessResult struct {
	Topic      string
	Frame      *scene.Frame
	Flatbuffer []byte
	JSON       []byte
	Timestamp  int64
	Error      error
}

// ResultHandler is a function that handles processed results
type ResultHandler func(result *ProcessResult)

// FrameProcessor turns a frame into its published encodings
type FrameProcessor func(frame *scene.Frame) (*ProcessResult, error)

// EncodeProcessor produces both the flatbuffer and the JSON encoding.
func EncodeProcessor(frame *scene.Frame) (*ProcessResult, error) {
	js, err := EncodeFrameJSON(frame)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{
		Topic:      TopicFor(frame.Kind),
		Frame:      frame,
		Flatbuffer: EncodeFrame(frame),
		JSON:       js,
	}, nil
}

// ProcessingPool is a bounded worker pool that fans frames out to the feeds.
// Frames are dropped, not queued, once the queue is full.
type ProcessingPool struct {
	name          string
	workerCount   int
	logger        customlog.Logger
	frameQueue    chan *scene.Frame
	running       bool
	wg            sync.WaitGroup
	mu            sync.RWMutex
	processor     FrameProcessor
	resultHandler ResultHandler
	queueSize     int
	metrics       *PoolMetrics
}

// PoolMetrics tracks metrics for a processing pool
type PoolMetrics struct {
	ProcessedCount    int64 `json:"processed_count"`
	ErrorCount        int64 `json:"error_count"`
	QueuedCount       int64 `json:"queued_count"`
	DroppedCount      int64 `json:"dropped_count"`
	LastProcessedTime int64 `json:"last_processed_time"`
	ProcessingTimeAvg int64 `json:"processing_time_avg_us"` // in microseconds
	ProcessingTimeMax int64 `json:"processing_time_max_us"` // in microseconds
	mu                sync.Mutex
}

func (m *PoolMetrics) count(counter *int64) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

// observe records one processed frame. The average is a two-sample moving
// average, in microseconds like the max.
func (m *PoolMetrics) observe(elapsed time.Duration, failed bool) {
	us := elapsed.Microseconds()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessedCount++
	m.LastProcessedTime = time.Now().UnixNano()
	if m.ProcessingTimeAvg == 0 {
		m.ProcessingTimeAvg = us
	} else {
		m.ProcessingTimeAvg = (m.ProcessingTimeAvg + us) / 2
	}
	if us > m.ProcessingTimeMax {
		m.ProcessingTimeMax = us
	}
	if failed {
		m.ErrorCount++
	}
}

func (m *PoolMetrics) snapshot() PoolMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PoolMetrics{
		ProcessedCount:    m.ProcessedCount,
		ErrorCount:        m.ErrorCount,
		QueuedCount:       m.QueuedCount,
		DroppedCount:      m.DroppedCount,
		LastProcessedTime: m.LastProcessedTime,
		ProcessingTimeAvg: m.ProcessingTimeAvg,
		ProcessingTimeMax: m.ProcessingTimeMax,
	}
}

// NewProcessingPool creates a new processing pool. A single worker keeps
// frames in submission order.
func NewProcessingPool(
	name string,
	workerCount int,
	queueSize int,
	logger customlog.Logger,
) *ProcessingPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &ProcessingPool{
		name:        name,
		workerCount: workerCount,
		queueSize:   queueSize,
		logger:      logger,
		frameQueue:  make(chan *scene.Frame, queueSize),
		processor:   EncodeProcessor,
		metrics:     &PoolMetrics{},
	}
}

// SetProcessor sets the frame processor function
func (p *ProcessingPool) SetProcessor(processor FrameProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processor = processor
}

// SetResultHandler sets the result handler function
func (p *ProcessingPool) SetResultHandler(handler ResultHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resultHandler = handler
}

// SubmitFrame adds a frame to the queue without blocking
func (p *ProcessingPool) SubmitFrame(frame *scene.Frame) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		p.logger.Debugf("%s pool not running, discarding %s frame", p.name, frame.Kind)
		return false
	}

	select {
	case p.frameQueue <- frame:
		p.metrics.count(&p.metrics.QueuedCount)
		return true
	default:
		p.metrics.count(&p.metrics.DroppedCount)
		p.logger.Warnf("%s pool queue is full, discarding %s frame", p.name, frame.Kind)
		return false
	}
}

// Start starts the processing pool workers
func (p *ProcessingPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.logger.Infof("Starting %s pool with %d workers", p.name, p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains the queue and waits for the workers. A stopped pool cannot be restarted.
func (p *ProcessingPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	// Submitters hold the read lock, so nobody can be sending here.
	close(p.frameQueue)
	p.mu.Unlock()

	p.logger.Infof("Stopping %s pool", p.name)

	p.wg.Wait()
	p.logger.Infof("%s pool stopped", p.name)

	p.logMetrics()
}

// worker processes frames from the queue
func (p *ProcessingPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugf("%s pool worker %d started", p.name, id)

	for frame := range p.frameQueue {
		p.mu.RLock()
		processor := p.processor
		resultHandler := p.resultHandler
		p.mu.RUnlock()

		started := time.Now()
		result, err := processor(frame)
		p.metrics.observe(time.Since(started), err != nil)

		if result == nil {
			result = &ProcessResult{Topic: TopicFor(frame.Kind), Frame: frame}
		}
		result.Timestamp = frame.Timestamp.UnixNano()
		result.Error = err
		if err != nil {
			p.logger.Errorf("Error processing %s frame in %s pool: %v", frame.Kind, p.name, err)
		}

		if resultHandler != nil {
			resultHandler(result)
		}
	}

	p.logger.Debugf("%s pool worker %d stopped", p.name, id)
}

// GetMetrics returns a copy of the current metrics
func (p *ProcessingPool) GetMetrics() PoolMetrics {
	return p.metrics.snapshot()
}

func (p *ProcessingPool) logMetrics() {
	m := p.GetMetrics()
	p.logger.Infof("%s pool metrics: queued=%d, processed=%d, errors=%d, dropped=%d, avg_time=%dµs, max_time=%dµs",
		p.name, m.QueuedCount, m.ProcessedCount, m.ErrorCount, m.DroppedCount,
		m.ProcessingTimeAvg, m.ProcessingTimeMax)
}

// GetQueueLength returns the current length of the frame queue
func (p *ProcessingPool) GetQueueLength() int {
	return len(p.frameQueue)
}

// GetQueueCapacity returns the capacity of the frame queue
func (p *ProcessingPool) GetQueueCapacity() int {
	return p.queueSize
}
