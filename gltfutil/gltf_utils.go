package gltfutil

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhplayer/geom"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	gltfbinary "github.com/qmuntal/gltf/binary"
	"github.com/qmuntal/gltf/modeler"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes .gltf as JSON with an embedded buffer, others as glb.
func Save(doc *gltf.Document, path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".gltf" {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
		return gltf.Save(doc, path)
	}
	return gltf.SaveBinary(doc, path)
}

func readMatrix(data []byte) [16]float32 {
	var mat [16]float32
	for i := 0; i < 16; i++ {
		d := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		mat[i] = math.Float32frombits(d)
	}
	return mat
}

func writeMatrix(data []byte, mat [16]float32) {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], math.Float32bits(mat[i]))
	}
}

// TranslationSamples returns the output of every translation channel keyed by node.
func TranslationSamples(doc *gltf.Document, a *gltf.Animation) (map[uint32][][3]float32, error) {
	ret := map[uint32][][3]float32{}
	for _, ch := range a.Channels {
		if ch.Target.Path != gltf.TRSTranslation || ch.Sampler == nil || ch.Target.Node == nil {
			continue
		}
		sampler := a.Samplers[*ch.Sampler]
		if sampler.Output == nil {
			continue
		}
		acr := doc.Accessors[*sampler.Output]
		pos, err := modeler.ReadPosition(doc, acr, [][3]float32{})
		if err != nil {
			return nil, err
		}
		ret[*ch.Target.Node] = pos
	}
	return ret, nil
}

// ScaleSkeleton multiplies node translations, translation animation samples
// and the translation of inverse bind matrices by s.
func ScaleSkeleton(doc *gltf.Document, s float32) error {
	if s == 1 {
		return nil
	}
	if s == 0 {
		return errors.New("scale must not be zero")
	}
	for _, node := range doc.Nodes {
		geom.NewVector3FromArray(node.Translation).Scale(s).ToArray(node.Translation[:])
	}

	scaled := map[uint32]bool{}
	for _, a := range doc.Animations {
		for _, ch := range a.Channels {
			if ch.Target.Path != gltf.TRSTranslation || ch.Sampler == nil || a.Samplers[*ch.Sampler].Output == nil {
				continue
			}
			out := *a.Samplers[*ch.Sampler].Output
			if scaled[out] {
				continue
			}
			scaled[out] = true
			acr := doc.Accessors[out]
			if acr.BufferView == nil || acr.Sparse != nil {
				return errors.Errorf("unsupported accessor %d", out)
			}
			pos, err := modeler.ReadPosition(doc, acr, [][3]float32{})
			if err != nil {
				return err
			}
			acr.Min = []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
			acr.Max = []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
			for i := range pos {
				geom.NewVector3FromArray(pos[i]).Scale(s).ToArray(pos[i][:])
				for t, v := range pos[i] {
					acr.Min[t] = float32(math.Min(float64(acr.Min[t]), float64(v)))
					acr.Max[t] = float32(math.Max(float64(acr.Max[t]), float64(v)))
				}
			}
			bufferView := doc.BufferViews[*acr.BufferView]
			buffer := doc.Buffers[bufferView.Buffer]
			if err := gltfbinary.Write(buffer.Data[bufferView.ByteOffset+acr.ByteOffset:], bufferView.ByteStride, pos); err != nil {
				return err
			}
		}
	}

	scaleMat := geom.NewScaleMatrix4(s, s, s)
	invScaleMat := geom.NewScaleMatrix4(1/s, 1/s, 1/s)
	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices == nil {
			continue
		}
		accessor := doc.Accessors[*skin.InverseBindMatrices]
		if accessor.BufferView == nil {
			continue
		}
		bufferView := doc.BufferViews[*accessor.BufferView]
		data := doc.Buffers[bufferView.Buffer].Data
		for i := range skin.Joints {
			offset := bufferView.ByteOffset + accessor.ByteOffset + uint32(i)*64
			mat := readMatrix(data[offset : offset+64])
			scaleMat.Mul(geom.NewMatrix4FromSlice(mat[:])).Mul(invScaleMat).ToArray(mat[:])
			writeMatrix(data[offset:offset+64], mat)
		}
	}
	return nil
}
