package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/amsynth/amsynth-sub001"
	"github.com/ebitengine/oto/v3"
)

// OtoContext is a live stereo float32 audio device.
type OtoContext struct {
	context *oto.Context
}

// OtoOutput streams interleaved stereo audio to the device. WriteAudio blocks
// until the device has consumed the previous buffer.
type OtoOutput struct {
	player    *oto.Player
	writer    *io.PipeWriter
	tmpBuffer []byte
}

// NewContext opens the audio device. bufferFrames sets the device latency.
func NewContext(sampleRate, bufferFrames int) (*OtoContext, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context}, nil
}

func (c *OtoContext) Output() amsynth.AudioSink {
	r, w := io.Pipe()
	player := c.context.NewPlayer(r)
	player.Play()
	return &OtoOutput{player: player, writer: w}
}

func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (o *OtoOutput) WriteAudio(floatBuffer []float32) error {
	// reuse the capacity of tmpBuffer
	o.tmpBuffer = FloatBufferToLE(floatBuffer, o.tmpBuffer[:0])
	if _, err := o.writer.Write(o.tmpBuffer); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

func (o *OtoOutput) Close() error {
	o.writer.Close()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
