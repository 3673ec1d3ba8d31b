package content

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"odfc/config"
	"odfc/state"
)

const (
	nsDecl = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
  xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
  xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0"
  xmlns:svg="urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0"
  xmlns:xlink="http://www.w3.org/1999/xlink"
  xmlns:dc="http://purl.org/dc/elements/1.1/"
  xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0"`

	testContent = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content ` + nsDecl + `>
  <office:automatic-styles/>
  <office:body>
    <office:text>
      <text:p>Kept paragraph</text:p>
      <text:p>Dropped paragraph<text:hidden-paragraph text:condition="ooow:1 == 1"/></text:p>
      <text:p>Other<text:hidden-paragraph text:condition="oooc:true"/></text:p>
      <text:p><draw:frame svg:width="1in" svg:height="1in"><draw:image xlink:href="Pictures/a.png"/></draw:frame></text:p>
      <text:p><draw:frame><draw:image xlink:href="Pictures/missing.png"/></draw:frame></text:p>
    </office:text>
  </office:body>
</office:document-content>`

	testStyles = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-styles ` + nsDecl + `>
  <office:styles>
    <style:style style:name="Standard" style:family="paragraph"/>
  </office:styles>
  <office:master-styles>
    <style:master-page style:name="Standard">
      <style:footer>
        <text:p>Footer<text:hidden-text text:condition="ooow:true" text:string-value="secret"/></text:p>
        <text:p><draw:frame><draw:image xlink:href="Pictures/logo.png"/></draw:frame></text:p>
      </style:footer>
    </style:master-page>
  </office:master-styles>
</office:document-styles>`

	testMeta = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta ` + nsDecl + `>
  <office:meta>
    <dc:title>Prepared</dc:title>
  </office:meta>
</office:document-meta>`
)

func buildPackage(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("unable to create mimetype entry: %v", err)
	}
	if _, err := mw.Write([]byte("application/vnd.oasis.opendocument.text")); err != nil {
		t.Fatalf("unable to write mimetype entry: %v", err)
	}
	for name, data := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("unable to create entry %s: %v", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("unable to write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unable to finish package: %v", err)
	}
	return buf.Bytes()
}

func testPackage(t *testing.T, alpha uint8) []byte {
	t.Helper()
	return buildPackage(t, map[string][]byte{
		"content.xml":       []byte(testContent),
		"styles.xml":        []byte(testStyles),
		"meta.xml":          []byte(testMeta),
		"Pictures/a.png":    createTestPNG(t, 16, 8, alpha),
		"Pictures/logo.png": []byte("not really a picture"),
	})
}

func setupTestEnv(t *testing.T) (context.Context, *zap.Logger) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, logger
}

func TestPrepare_Package(t *testing.T) {
	ctx, log := setupTestEnv(t)

	c, err := Prepare(ctx, bytes.NewReader(testPackage(t, 255)), "dir/report.odt", config.OutputFmtPdf, log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if c.SrcName != "dir/report.odt" || c.OutputFormat != config.OutputFmtPdf {
		t.Errorf("unexpected source info: %q %v", c.SrcName, c.OutputFormat)
	}
	if c.ID == "" {
		t.Error("ID must be generated")
	}
	if c.Meta.Title != "Prepared" {
		t.Errorf("Meta.Title = %q, want Prepared", c.Meta.Title)
	}
	if c.WorkDir != "" {
		t.Errorf("WorkDir = %q, want none without report", c.WorkDir)
	}

	// body: one paragraph suppressed, one marker skipped; footer: hidden text removed
	if c.Pruned.Removed != 2 || c.Pruned.Paragraphs != 1 || c.Pruned.Skipped != 1 || c.Pruned.Failed != 0 {
		t.Errorf("Pruned = %+v", c.Pruned)
	}
	dump := c.Body.String()
	if !strings.Contains(dump, "Kept paragraph") || strings.Contains(dump, "Dropped paragraph") {
		t.Errorf("unexpected body tree:\n%s", dump)
	}

	if mp, ok := c.Catalog.MasterPage(""); !ok || mp.Name != "Standard" {
		t.Errorf("MasterPage() = %v, %v", mp, ok)
	}

	if pic := c.Pictures["Pictures/a.png"]; pic == nil || pic.Type != "PNG" || pic.Width != 16 {
		t.Errorf("body picture = %+v", pic)
	}
	// broken footer picture substituted, missing one left for placeholder
	if pic := c.Pictures["Pictures/logo.png"]; pic == nil || pic.Type != "JPG" {
		t.Errorf("footer picture = %+v, want broken image substitute", pic)
	}
	if _, ok := c.Pictures["Pictures/missing.png"]; ok {
		t.Error("missing picture must not be in index")
	}

	doc := c.Document()
	if doc.Body != c.Body || doc.Catalog != c.Catalog || len(doc.Pictures) != len(c.Pictures) {
		t.Error("Document() does not carry prepared content")
	}
}

func TestPrepare_Archival(t *testing.T) {
	ctx, log := setupTestEnv(t)

	c, err := Prepare(ctx, bytes.NewReader(testPackage(t, 100)), "report.odt", config.OutputFmtPdfa, log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	pic := c.Pictures["Pictures/a.png"]
	if pic == nil {
		t.Fatal("picture was not prepared")
	}
	img, _, err := decodeImage(pic.Data)
	if err != nil {
		t.Fatalf("unable to decode prepared picture: %v", err)
	}
	if !isOpaque(img) {
		t.Error("archival picture must not carry transparency")
	}
}

func TestPrepare_Errors(t *testing.T) {
	t.Run("not a document", func(t *testing.T) {
		ctx, log := setupTestEnv(t)
		if _, err := Prepare(ctx, strings.NewReader("<html/>"), "page.html", config.OutputFmtPdf, log); err == nil {
			t.Error("expected error for non ODF input")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, log := setupTestEnv(t)
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := Prepare(ctx, bytes.NewReader(testPackage(t, 255)), "report.odt", config.OutputFmtPdf, log); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

func TestPrepare_Report(t *testing.T) {
	ctx, log := setupTestEnv(t)
	env := state.EnvFromContext(ctx)

	tmpDir := t.TempDir()
	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("unable to prepare report: %v", err)
	}
	env.Rpt = rpt

	c, err := Prepare(ctx, bytes.NewReader(testPackage(t, 255)), "report.odt", config.OutputFmtPdf, log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(c.WorkDir) })

	if c.WorkDir == "" {
		t.Fatal("WorkDir must be created when report is requested")
	}
	for _, name := range []string{"report.odt", "report.odt_pruned.xml", "report.odt_prepared"} {
		if _, err := os.Stat(filepath.Join(c.WorkDir, name)); err != nil {
			t.Errorf("debug artifact %s: %v", name, err)
		}
	}
	pruned, err := os.ReadFile(filepath.Join(c.WorkDir, "report.odt_pruned.xml"))
	if err != nil {
		t.Fatalf("unable to read pruned dump: %v", err)
	}
	if strings.Contains(string(pruned), "Dropped paragraph") {
		t.Error("pruned dump still has suppressed paragraph")
	}

	if err := rpt.Close(); err != nil {
		t.Fatalf("unable to close report: %v", err)
	}
}

func TestContent_String(t *testing.T) {
	var nilContent *Content
	if got := nilContent.String(); got != "<nil Content>" {
		t.Errorf("String() on nil = %q", got)
	}

	ctx, log := setupTestEnv(t)
	c, err := Prepare(ctx, bytes.NewReader(testPackage(t, 255)), "report.odt", config.OutputFmtPdf, log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	out := c.String()
	for _, want := range []string{
		`Document "report.odt"`,
		`Title: "Prepared"`,
		"Conditional markers: removed=2 paragraphs=1 failed=0 skipped=1",
		`Master["Standard"]`,
		"Pictures index: 2",
		`Picture["Pictures/a.png"] type[PNG]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("String() does not contain %q:\n%s", want, out)
		}
	}
}
