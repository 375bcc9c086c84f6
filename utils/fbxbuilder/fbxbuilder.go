package fbxbuilder

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	FBX_VERSION    = 7400
	FBX_CREATOR    = "bvh_skinning"
	FBX_APP_VENDOR = "mogaika"
	FBX_APP_NAME   = "bvh_skinning"
	FBX_APP_VER    = "1.0"
	FBX_EPOCH_GMT  = "01/01/1970 00:00:00.000"
	FBX_EPOCH      = "1970-01-01 00:00:00:000"
)

var FBX_FILE_ID = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// objectTemplates are the property templates of every object type the
// skeleton and mesh exporters emit.
var objectTemplates = []struct {
	objectType string
	template   string
	properties func() []*fbx.Node
}{
	{"Model", "FbxNode", func() []*fbx.Node {
		return []*fbx.Node{
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
		}
	}},
	{"Geometry", "FbxMesh", func() []*fbx.Node {
		return []*fbx.Node{
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		}
	}},
	{"NodeAttribute", "FbxSkeleton", func() []*fbx.Node {
		return []*fbx.Node{
			bfbx73.P("Size", "double", "Number", "", float64(100)),
			bfbx73.P("LimbLength", "double", "Number", "H", float64(1)),
		}
	}},
}

// Y up, right handed
var globalSettings = []struct {
	name  string
	value int32
}{
	{"UpAxis", 1}, {"UpAxisSign", 1},
	{"FrontAxis", 2}, {"FrontAxisSign", 1},
	{"CoordAxis", 0}, {"CoordAxisSign", 1},
}

// FBXBuilder assembles a binary FBX document. Exporters add objects and
// connections, Write fills the definition counts.
type FBXBuilder struct {
	f      *fbx.FBX
	lastId int64

	definitions *fbx.Node
	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string) *FBXBuilder {
	f := &FBXBuilder{
		lastId:      1000000,
		f:           fbx.NewFBX(FBX_VERSION),
		definitions: bfbx73.Definitions(),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}

	f.Root().AddNodes(
		headerExtension(filename),
		bfbx73.FileId(FBX_FILE_ID),
		bfbx73.CreationTime(FBX_EPOCH),
		bfbx73.Creator(FBX_CREATOR),
		f.globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70(),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		f.definitions,
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return f
}

func headerExtension(filename string) *fbx.Node {
	appInfo := func(prefix string) []*fbx.Node {
		return []*fbx.Node{
			bfbx73.P(prefix, "Compound", "", ""),
			bfbx73.P(prefix+"|ApplicationVendor", "KString", "", "", FBX_APP_VENDOR),
			bfbx73.P(prefix+"|ApplicationName", "KString", "", "", FBX_APP_NAME),
			bfbx73.P(prefix+"|ApplicationVersion", "KString", "", "", FBX_APP_VER),
			bfbx73.P(prefix+"|DateTime_GMT", "DateTime", "", "", FBX_EPOCH_GMT),
		}
	}

	props := bfbx73.Properties70().AddNodes(
		bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)),
	)
	props.AddNodes(appInfo("Original")...)
	props.AddNodes(appInfo("LastSaved")...)

	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(FBX_VERSION),
		bfbx73.EncryptionType(0),
		bfbx73.Creator(FBX_CREATOR),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			props,
		),
	)
}

func (f *FBXBuilder) globalSettings() *fbx.Node {
	props := bfbx73.Properties70()
	for _, s := range globalSettings {
		props.AddNode(bfbx73.P(s.name, "int", "Integer", "", s.value))
	}
	props.AddNode(bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)))
	return bfbx73.GlobalSettings().AddNodes(bfbx73.Version(1000), props)
}

// fillDefinitions declares one ObjectType per object kind present, with
// its count and property template.
func (f *FBXBuilder) fillDefinitions() {
	counts := make(map[string]int32)
	for _, object := range f.objects.Nodes {
		counts[object.Name]++
	}

	total := int32(1)
	f.definitions.Nodes = nil
	f.definitions.AddNodes(
		bfbx73.Version(100),
		bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)),
	)
	for _, ot := range objectTemplates {
		count := counts[ot.objectType]
		if count == 0 {
			continue
		}
		total += count
		f.definitions.AddNode(bfbx73.ObjectType(ot.objectType).AddNodes(
			countNode(count),
			bfbx73.PropertyTemplate(ot.template).AddNodes(
				bfbx73.Properties70().AddNodes(ot.properties()...),
			),
		))
	}
	f.definitions.AddNode(countNode(total))
}

func countNode(count int32) *fbx.Node {
	n := bfbx73.Count(0)
	n.Properties[0] = count
	return n
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

// Write encodes the document. fbx.Write needs a seekable writer.
func (f *FBXBuilder) Write(w io.Writer) error {
	f.fillDefinitions()

	tempFile, err := ioutil.TempFile("", "bvhskin.*.fbx")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, f.f); err != nil {
		return errors.Wrapf(err, "Unable to write fbx")
	}
	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }
