// Package prefetch decodes and resizes cached images off the request path.
// A fixed set of workers consumes a bounded queue and emits results on a
// single delivery channel.
package prefetch

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/image/draw"
)

// Request asks the pool to load the image at Path and fit it into
// Width x Height. Handle is opaque to the pool and comes back on the
// delivery.
type Request struct {
	Handle any
	Path   string
	Width  int
	Height int
}

// Delivery carries a decoded, resized image back to the consumer.
type Delivery struct {
	Handle any
	Image  image.Image
}

type Pool struct {
	queue      chan Request
	deliveries chan Delivery
	done       chan struct{}
	workers    int
	log        logger.Logger
}

// NewPool creates a pool with the given worker count and queue size. Start
// must be called before Submit.
func NewPool(workers, queueSize int) *Pool {
	return &Pool{
		queue:      make(chan Request, queueSize),
		deliveries: make(chan Delivery, queueSize),
		done:       make(chan struct{}, workers),
		workers:    workers,
		log:        logger.New(),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		go p.work()
	}
}

// Submit enqueues a request. It reports false when the queue is full, leaving
// backpressure decisions to the caller.
func (p *Pool) Submit(req Request) bool {
	select {
	case p.queue <- req:
		return true
	default:
		return false
	}
}

// Deliveries is the single channel all results arrive on. Exactly one
// goroutine should consume it.
func (p *Pool) Deliveries() <-chan Delivery {
	return p.deliveries
}

// Shutdown stops the workers. Pending queue items are dropped; requests have
// no durability guarantee.
func (p *Pool) Shutdown() {
	close(p.queue)
	for i := 0; i < p.workers; i++ {
		<-p.done
	}
	close(p.deliveries)
}

func (p *Pool) work() {
	for req := range p.queue {
		img, ok := p.load(req)
		if !ok {
			// Missing or undecodable files produce no delivery at all; the
			// consumer simply never hears about the handle.
			continue
		}
		p.deliveries <- Delivery{Handle: req.Handle, Image: img}
	}
	p.done <- struct{}{}
}

func (p *Pool) load(req Request) (image.Image, bool) {
	f, err := os.Open(req.Path)
	if err != nil {
		p.log.Err(err).Warn("prefetch open failed", logger.Data{"path": req.Path})
		return nil, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		p.log.Err(err).Warn("prefetch decode failed", logger.Data{"path": req.Path})
		return nil, false
	}

	if req.Width > 0 && req.Height > 0 {
		img = fitToBox(img, req.Width, req.Height)
	}

	return img, true
}

// fitToBox scales img down to fit within maxW x maxH, preserving aspect
// ratio. Images already inside the box are returned unchanged.
func fitToBox(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW <= maxW && srcH <= maxH {
		return img
	}

	ratioW := float64(maxW) / float64(srcW)
	ratioH := float64(maxH) / float64(srcH)

	ratio := ratioW
	if ratioH < ratioW {
		ratio = ratioH
	}

	targetW := int(float64(srcW) * ratio)
	targetH := int(float64(srcH) * ratio)
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
