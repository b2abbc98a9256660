package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"time"

	trafficwatch "github.com/trafficwatch/go-trafficwatch"
	"github.com/trafficwatch/go-trafficwatch/alert"
	"github.com/trafficwatch/go-trafficwatch/geom"
	"github.com/trafficwatch/go-trafficwatch/render"
	"github.com/trafficwatch/go-trafficwatch/suppress"
	"github.com/trafficwatch/go-trafficwatch/zone"
	"gocv.io/x/gocv"
)

var (
	// FPS is the number of FPS to simulate
	FPS         = 30
	FPSinterval = time.Duration(float64(time.Second) / float64(FPS))
)

const (
	// Size of TTF font used for alert captions
	TTFFontSize = 28
)

// frameDetections is one line of the detections sidecar file produced by
// the external detector/tracker
type frameDetections struct {
	Frame   int `json:"frame"`
	Objects []struct {
		X     float32 `json:"x"`
		Y     float32 `json:"y"`
		W     float32 `json:"w"`
		H     float32 `json:"h"`
		ID    int64   `json:"id"`
		Class int     `json:"class"`
		Score float32 `json:"score"`
	} `json:"objects"`
}

// ResultFrame is a struct to wrap the gocv byte buffer and error result
type ResultFrame struct {
	Buf *gocv.NativeByteBuffer
	Err error
}

// Demo defines the struct for running the traffic monitoring demo
type Demo struct {
	// vidBuffer buffers the video frames into memory
	vidBuffer []gocv.Mat
	// detections are the per-frame detector/tracker results keyed by
	// frame number
	detections map[int][]trafficwatch.Detection
	// labels are the class names the detector was trained on
	labels []string
	// countZone and alertZone are the configured polygons
	countZone zone.Polygon
	alertZone zone.Polygon
	// pixelsPerMeter is the scene calibration ratio
	pixelsPerMeter float64
	// textDrawer renders alert captions with a TTF font, nil falls back
	// to the built in Hershey font
	textDrawer *render.TextDrawer
}

// NewDemo returns an instance of Demo, a streaming HTTP server showing
// traffic analysis overlays on video
func NewDemo(vidFile, detFile, labelFile, ttfFont string, pixelsPerMeter float64) (*Demo, error) {

	d := &Demo{
		pixelsPerMeter: pixelsPerMeter,
	}

	if ttfFont != "" {
		var err error
		d.textDrawer, err = render.NewTextDrawer(ttfFont, TTFFontSize)

		if err != nil {
			return nil, fmt.Errorf("error loading TTF font: %w", err)
		}
	}

	err := d.bufferVideo(vidFile)

	if err != nil {
		return nil, fmt.Errorf("error buffering video: %w", err)
	}

	err = d.loadDetections(detFile)

	if err != nil {
		return nil, fmt.Errorf("error loading detections: %w", err)
	}

	// load in detector class names
	d.labels, err = trafficwatch.LoadLabels(labelFile)

	if err != nil {
		return nil, fmt.Errorf("error loading labels: %w", err)
	}

	// zone layout for the demo footage
	d.countZone, err = zone.NewPolygon([]geom.Point{
		{X: 0, Y: 500}, {X: 0, Y: 670}, {X: 1918, Y: 630}, {X: 1918, Y: 463},
	})

	if err != nil {
		return nil, fmt.Errorf("count zone: %w", err)
	}

	d.alertZone, err = zone.NewPolygon([]geom.Point{
		{X: 120, Y: 470}, {X: 1731, Y: 428}, {X: 1918, Y: 133},
		{X: 1918, Y: 0}, {X: 1350, Y: 0},
	})

	if err != nil {
		return nil, fmt.Errorf("alert zone: %w", err)
	}

	return d, nil
}

// bufferVideo reads in the video frames and saves them to a buffer
func (d *Demo) bufferVideo(vidFile string) error {

	// open handle to read frames of video file
	video, err := gocv.VideoCaptureFile(vidFile)

	if err != nil {
		return err
	}

	defer video.Close()

	d.vidBuffer = make([]gocv.Mat, 0)

	for {
		img := gocv.NewMat()

		// read the next frame from the video
		if ok := video.Read(&img); !ok {
			// reached last video frame
			break
		}

		// Check if the frame is empty
		if img.Empty() {
			continue
		}

		// push frame onto buffer
		d.vidBuffer = append(d.vidBuffer, img)
	}

	if len(d.vidBuffer) == 0 {
		return fmt.Errorf("video contains no frames")
	}

	return nil
}

// loadDetections reads the JSONL detections sidecar file, one line per
// frame
func (d *Demo) loadDetections(detFile string) error {

	f, err := os.Open(detFile)

	if err != nil {
		return err
	}

	defer f.Close()

	d.detections = make(map[int][]trafficwatch.Detection)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {

		var fd frameDetections

		if err := json.Unmarshal(scanner.Bytes(), &fd); err != nil {
			return fmt.Errorf("malformed detections line: %w", err)
		}

		dets := make([]trafficwatch.Detection, 0, len(fd.Objects))

		for _, obj := range fd.Objects {
			dets = append(dets, trafficwatch.Detection{
				Box:     geom.NewBox(obj.X, obj.Y, obj.W, obj.H),
				TrackID: obj.ID,
				Class:   obj.Class,
				Score:   obj.Score,
			})
		}

		d.detections[fd.Frame] = dets
	}

	return scanner.Err()
}

// newPipeline creates a fresh processing pipeline.  You must create a
// new instance per stream as it keeps per-track state across frames
func (d *Demo) newPipeline() (*trafficwatch.Pipeline, error) {

	frame := d.vidBuffer[0]

	return trafficwatch.NewPipeline(trafficwatch.Config{
		Suppress: suppress.DefaultConfig(frame.Cols(), frame.Rows()),
		Zones: zone.Config{
			Count: d.countZone,
			Alert: d.alertZone,
			// bicycles and tricycles raise intrusion alerts
			AlertClasses: []int{0, 2},
		},
		PixelsPerMeter: d.pixelsPerMeter,
		StaleAfter:     time.Minute,
	})
}

// Stream is the HTTP handler function used to stream video frames to browser
func (d *Demo) Stream(w http.ResponseWriter, r *http.Request) {

	log.Printf("New client connection established\n")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	// pointer to position in video buffer
	frameNum := -1

	pipeline, err := d.newPipeline()

	if err != nil {
		log.Printf("Error creating pipeline: %v", err)
		http.Error(w, "pipeline setup failed", http.StatusInternalServerError)
		return
	}

	// alert playback is serialized so overlapping alerts don't
	// interleave.  The demo just logs, a deployment would hook up audio
	dispatcher := alert.NewDispatcher(func(ev zone.AlertEvent) {
		log.Printf("ALERT: object %d (class %d) intruding since %s",
			ev.TrackID, ev.Class, ev.At.Format("15:04:05"))
	})

	// used for calculating FPS
	frameCount := 0
	startTime := time.Now()
	fps := float64(0)

	ticker := time.NewTicker(FPSinterval)
	defer ticker.Stop()

	// chan to receive processed frames
	recvFrame := make(chan ResultFrame, 30)

loop:
	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected\n")
			break loop

		// simulate reading a 30FPS camera
		case <-ticker.C:

			// increment pointer to next image in the video buffer
			frameNum++
			if frameNum > len(d.vidBuffer)-1 {
				// last frame reached so loop back to start of video
				frameNum = 0
				// clear per-track pipeline state
				pipeline, err = d.newPipeline()

				if err != nil {
					log.Printf("Error recreating pipeline: %v", err)
					break loop
				}
			}

			go d.ProcessFrame(d.vidBuffer[frameNum], recvFrame, fps,
				frameNum, pipeline, dispatcher)

		case buf := <-recvFrame:

			if buf.Err != nil {
				log.Printf("Error occured during ProcessFrame: %v", buf.Err)

			} else {
				// Write the image to the response writer
				w.Write([]byte("--frame\r\n"))
				w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
				w.Write(buf.Buf.GetBytes())
				w.Write([]byte("\r\n"))

				// Flush the buffer
				flusher, ok := w.(http.Flusher)
				if ok {
					flusher.Flush()
				}
			}

			buf.Buf.Close()

			// calculate FPS
			frameCount++
			elapsed := time.Since(startTime).Seconds()

			if elapsed >= 1.0 {
				fps = float64(frameCount) / elapsed
				frameCount = 0
				startTime = time.Now()
			}
		}
	}

	dispatcher.Wait()
}

// ProcessFrame runs one frame of detections through the pipeline,
// annotates the image and returns the result encoded as a JPG file
func (d *Demo) ProcessFrame(img gocv.Mat, retChan chan<- ResultFrame,
	fps float64, frameNum int, pipeline *trafficwatch.Pipeline,
	dispatcher *alert.Dispatcher) {

	resImg := gocv.NewMat()
	defer resImg.Close()

	pipeline.Zones().SetFrameRef(fmt.Sprintf("frame_%06d", frameNum))

	res := pipeline.Process(d.detections[frameNum], time.Now())

	// hand alert side effects to the async dispatcher
	for _, ev := range res.Alerts {
		dispatcher.Dispatch(ev)
	}

	// copy the source image and annotate the copy
	img.CopyTo(&resImg)
	d.AnnotateImg(resImg, pipeline, res, fps, frameNum)

	// Encode the image to JPEG format
	buf, err := gocv.IMEncode(".jpg", resImg)

	retChan <- ResultFrame{
		Buf: buf,
		Err: err,
	}
}

// AnnotateImg draws the zones, detection boxes, trails and statistics on
// the given image Mat
func (d *Demo) AnnotateImg(img gocv.Mat, pipeline *trafficwatch.Pipeline,
	res trafficwatch.FrameResult, fps float64, frameNum int) {

	font := render.DefaultFont()

	// tint the count zone, flash the alert zone while an intrusion is
	// dwelling
	render.Zone(&img, d.countZone, render.Green, 0.1)

	if len(res.Dwelling) > 0 {
		render.Zone(&img, d.alertZone, render.Red, 0.2)
	} else {
		render.ZoneOutline(&img, d.alertZone, render.Red, 1)
	}

	render.DetectionBoxes(&img, res.Detections, d.labels,
		pipeline.Speeds().Speed, font, 2)

	render.Trails(&img, res.Detections, pipeline.History(),
		render.DefaultTrailStyle())

	// warning captions above dwelling objects
	positions := make(map[int64]image.Point)

	for _, det := range res.Detections {
		positions[det.TrackID] = image.Pt(int(det.Box.X), int(det.Box.Y))
	}

	render.AlertMarkers(&img, res.Dwelling, positions, font, d.textDrawer)

	render.Stats(&img, res, frameNum, fps)
}

func main() {

	vidFile := flag.String("v", "traffic.mp4", "Video file to play")
	detFile := flag.String("d", "traffic-detections.jsonl", "Detections JSONL sidecar file")
	labelFile := flag.String("l", "labels.txt", "Class labels text file, one per line")
	ttfFont := flag.String("f", "", "TTF font for alert captions, eg a CJK face. Blank uses the built in Hershey font")
	ppm := flag.Float64("ppm", 5, "Pixels per meter calibration ratio")
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")

	flag.Parse()

	demo, err := NewDemo(*vidFile, *detFile, *labelFile, *ttfFont, *ppm)

	if err != nil {
		log.Fatalf("Error initializing demo: %v", err)
	}

	log.Printf("Buffered %d video frames, detections for %d frames",
		len(demo.vidBuffer), len(demo.detections))

	http.HandleFunc("/stream", demo.Stream)

	log.Printf("Open browser and view video at http://%s/stream", *httpAddr)
	log.Fatal(http.ListenAndServe(*httpAddr, nil))
}
