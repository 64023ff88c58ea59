package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

// eventLog records everything the fake device sees, in order.
type eventLog struct {
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

// index returns the position of the first event equal to event, or -1.
func (l *eventLog) index(event string) int {
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

func (l *eventLog) count(prefix string) int {
	n := 0
	for _, e := range l.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (l *eventLog) since(mark int) []string {
	return l.events[mark:]
}

type fakeObject struct {
	log       *eventLog
	kind      string
	name      string
	destroyed bool
}

func (o *fakeObject) Destroy() {
	if o.destroyed {
		o.log.add("double destroy %s", o.name)
		return
	}
	o.destroyed = true
	o.log.add("destroy %s", o.name)
}

// fakeFence completes its GPU work only when the host waits on it, so the
// order of completions in the log follows the order of host waits.
type fakeFence struct {
	*fakeObject

	signaled bool
	pending  string
	history  []string
}

func (f *fakeFence) Wait() (Result, error) {
	f.history = append(f.history, "wait")
	if f.pending != "" {
		f.log.add("complete %s", f.pending)
		f.pending = ""
		f.signaled = true
	}
	if !f.signaled {
		return ResultErrorDeviceLost, errors.Newf("%s waited on with no work queued", f.name)
	}
	f.log.add("wait %s", f.name)
	return ResultSuccess, nil
}

func (f *fakeFence) Reset() (Result, error) {
	f.history = append(f.history, "reset")
	f.signaled = false
	f.log.add("reset %s", f.name)
	return ResultSuccess, nil
}

type fakeImage struct {
	swapchain string
	index     int
}

type fakeSwapchain struct {
	*fakeObject

	device *fakeDevice
	info   SwapchainCreateInfo
	images []Image
}

func (s *fakeSwapchain) Images() ([]Image, Result, error) {
	return s.images, ResultSuccess, nil
}

func (s *fakeSwapchain) AcquireNextImage(signal Semaphore) (int, Result, error) {
	d := s.device
	d.acquires++
	if s.destroyed {
		return 0, ResultErrorDeviceLost, errors.Newf("acquire on destroyed %s", s.name)
	}

	res := ResultSuccess
	if scripted, ok := d.acquireScript[d.acquires]; ok {
		res = scripted
	}
	if res != ResultSuccess && !res.Stale() {
		return 0, res, nil
	}

	imageIndex := d.nextImage % len(s.images)
	if res == ResultErrorOutOfDate {
		d.log.add("acquire %d out of date", d.acquires)
		return 0, res, nil
	}
	d.nextImage++
	d.log.add("acquire %d image %d signal %s", d.acquires, imageIndex, name(signal))
	return imageIndex, res, nil
}

func name(d Destroyer) string {
	switch o := d.(type) {
	case *fakeObject:
		return o.name
	case *fakeFence:
		return o.name
	case *fakeSwapchain:
		return o.name
	}
	return fmt.Sprintf("%v", d)
}

type fakeDevice struct {
	t   *testing.T
	log *eventLog

	support    SurfaceSupport
	supportErr error

	// Scripts are keyed by the 1-based call number.
	acquireScript map[int]Result
	presentScript map[int]Result

	idleErr  error
	failures map[string]error

	created    map[string]int
	objects    []*fakeObject
	fences     []*fakeFence
	swapchains []*fakeSwapchain

	acquires  int
	presents  int
	submits   int
	nextImage int

	lastSubmission Submission
}

func newFakeDevice(t *testing.T) *fakeDevice {
	return &fakeDevice{
		t:   t,
		log: &eventLog{},
		support: SurfaceSupport{
			Capabilities: SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  0,
				CurrentExtent:  Extent2D{Width: ExtentUndefined, Height: ExtentUndefined},
				MinImageExtent: Extent2D{Width: 1, Height: 1},
				MaxImageExtent: Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []SurfaceFormat{
				{Format: FormatB8G8R8A8SRGB, ColorSpace: ColorSpaceSRGBNonlinear},
				{Format: FormatB8G8R8A8UnsignedNormalized, ColorSpace: ColorSpaceSRGBNonlinear},
			},
			PresentModes: []PresentMode{PresentModeFIFO, PresentModeMailbox},
		},
		acquireScript: map[int]Result{},
		presentScript: map[int]Result{},
		failures:      map[string]error{},
		created:       map[string]int{},
	}
}

func (d *fakeDevice) newObject(kind string) *fakeObject {
	d.created[kind]++
	o := &fakeObject{
		log:  d.log,
		kind: kind,
		name: fmt.Sprintf("%s#%d", kind, d.created[kind]),
	}
	d.objects = append(d.objects, o)
	return o
}

func (d *fakeDevice) fail(kind string) error {
	return d.failures[kind]
}

// live returns how many objects of kind have been created and not destroyed.
func (d *fakeDevice) live(kind string) int {
	n := 0
	for _, o := range d.objects {
		if o.kind == kind && !o.destroyed {
			n++
		}
	}
	return n
}

func (d *fakeDevice) SurfaceSupport() (SurfaceSupport, error) {
	return d.support, d.supportErr
}

func (d *fakeDevice) CreateSwapchain(info SwapchainCreateInfo) (SwapchainHandle, Result, error) {
	if err := d.fail("swapchain"); err != nil {
		return nil, ResultErrorInitFailed, err
	}

	for _, s := range d.swapchains {
		if !s.destroyed {
			d.t.Errorf("swapchain created while %s is still alive", s.name)
		}
	}

	s := &fakeSwapchain{
		fakeObject: d.newObject("swapchain"),
		device:     d,
		info:       info,
	}
	for i := 0; i < info.MinImageCount; i++ {
		s.images = append(s.images, fakeImage{swapchain: s.name, index: i})
	}
	d.swapchains = append(d.swapchains, s)
	d.nextImage = 0
	d.log.add("create %s %s %d images", s.name, info.Extent, len(s.images))
	return s, ResultSuccess, nil
}

func (d *fakeDevice) CreateImageView(image Image, format Format) (ImageView, Result, error) {
	if err := d.fail("view"); err != nil {
		return nil, ResultErrorOutOfHostMemory, err
	}
	return d.newObject("view"), ResultSuccess, nil
}

func (d *fakeDevice) CreateFramebuffer(renderPass RenderPass, view ImageView, extent Extent2D) (Framebuffer, Result, error) {
	if err := d.fail("framebuffer"); err != nil {
		return nil, ResultErrorOutOfDeviceMemory, err
	}
	if renderPass.(*fakeObject).destroyed || view.(*fakeObject).destroyed {
		d.t.Errorf("framebuffer built on destroyed objects")
	}
	return d.newObject("framebuffer"), ResultSuccess, nil
}

func (d *fakeDevice) CreateSemaphore() (Semaphore, Result, error) {
	if err := d.fail("semaphore"); err != nil {
		return nil, ResultErrorOutOfHostMemory, err
	}
	return d.newObject("semaphore"), ResultSuccess, nil
}

func (d *fakeDevice) CreateFence(signaled bool) (Fence, Result, error) {
	if err := d.fail("fence"); err != nil {
		return nil, ResultErrorOutOfHostMemory, err
	}
	f := &fakeFence{
		fakeObject: d.newObject("fence"),
		signaled:   signaled,
	}
	d.fences = append(d.fences, f)
	return f, ResultSuccess, nil
}

func (d *fakeDevice) Submit(work Submission) (Result, error) {
	d.submits++
	if err := d.fail("submit"); err != nil {
		return ResultErrorDeviceLost, err
	}
	fence := work.Fence.(*fakeFence)
	fence.history = append(fence.history, "submit")
	if fence.signaled || fence.pending != "" {
		return ResultErrorDeviceLost, errors.Newf("submit %d uses %s before it was reset", d.submits, fence.name)
	}
	if work.WaitStage != PipelineStageColorAttachmentOutput {
		d.t.Errorf("submit %d waits at stage %#x", d.submits, work.WaitStage)
	}

	fence.pending = fmt.Sprintf("submit#%d", d.submits)
	d.lastSubmission = work
	d.log.add("submit#%d %s wait %s signal %s fence %s",
		d.submits, name(work.CommandBuffer), name(work.Wait), name(work.Signal), fence.name)
	return ResultSuccess, nil
}

func (d *fakeDevice) Present(swapchain SwapchainHandle, imageIndex int, wait Semaphore) (Result, error) {
	d.presents++
	s := swapchain.(*fakeSwapchain)
	if s.destroyed {
		return ResultErrorDeviceLost, errors.Newf("present on destroyed %s", s.name)
	}

	res := ResultSuccess
	if scripted, ok := d.presentScript[d.presents]; ok {
		res = scripted
	}
	d.log.add("present#%d image %d wait %s %s", d.presents, imageIndex, name(wait), res)
	return res, nil
}

func (d *fakeDevice) WaitIdle() (Result, error) {
	if d.idleErr != nil {
		return ResultErrorDeviceLost, d.idleErr
	}
	for _, f := range d.fences {
		if f.pending != "" {
			d.log.add("complete %s", f.pending)
			f.pending = ""
			f.signaled = true
		}
	}
	d.log.add("idle")
	return ResultSuccess, nil
}

type fakeProvider struct {
	device *fakeDevice

	pipelineErr error
	recordErr   error
	// short makes RecordCommands return one buffer too few.
	short bool

	pipelines int
}

func (p *fakeProvider) CreatePipeline(format SurfaceFormat, extent Extent2D) (Pipeline, error) {
	p.pipelines++
	if p.pipelineErr != nil {
		return Pipeline{RenderPass: p.device.newObject("renderpass")}, p.pipelineErr
	}
	return Pipeline{
		RenderPass: p.device.newObject("renderpass"),
		Layout:     p.device.newObject("layout"),
		Graphics:   p.device.newObject("pipeline"),
	}, nil
}

func (p *fakeProvider) RecordCommands(targets []RenderTarget) ([]CommandBuffer, error) {
	if p.recordErr != nil {
		return nil, p.recordErr
	}

	recorded := targets
	if p.short {
		recorded = targets[:len(targets)-1]
	}

	buffers := make([]CommandBuffer, 0, len(recorded))
	for _, target := range recorded {
		if target.Framebuffer == nil || target.RenderPass == nil {
			p.device.t.Errorf("target %d is missing its framebuffer or render pass", target.ImageIndex)
		}
		buffers = append(buffers, p.device.newObject("cmd"))
	}
	return buffers, nil
}

// destroyRank orders object kinds by the stage they are released in.
var destroyRank = map[string]Stage{
	"cmd":         StageCommandBuffers,
	"framebuffer": StageFramebuffers,
	"pipeline":    StagePipeline,
	"layout":      StagePipelineLayout,
	"renderpass":  StageRenderPass,
	"view":        StageImageViews,
	"swapchain":   StageSwapchain,
	"semaphore":   StageSyncObjects,
	"fence":       StageSyncObjects,
	"pool":        StageCommandPool,
	"device":      StageDevice,
	"messenger":   StageDebugMessenger,
	"surface":     StageSurface,
	"instance":    StageInstance,
}

// checkDestroyOrder fails the test if the destroy events in events do not
// follow the canonical stage order.
func checkDestroyOrder(t *testing.T, events []string) {
	t.Helper()

	last := Stage(-1)
	for _, e := range events {
		if !strings.HasPrefix(e, "destroy ") {
			continue
		}
		kind := strings.SplitN(strings.TrimPrefix(e, "destroy "), "#", 2)[0]
		rank, ok := destroyRank[kind]
		if !ok {
			t.Fatalf("unexpected destroy event %q", e)
		}
		if rank < last {
			t.Errorf("%q released after stage %s", e, last)
		}
		last = rank
	}
}
