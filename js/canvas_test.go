package js

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/chrisuehlinger/canvashim/canvas"
)

// pngDataURL encodes a solid w x h image as a data: URL.
func pngDataURL(t *testing.T, w, h int, col color.NRGBA) string {
	t.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, col)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestOffscreenCanvasBasic(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var canvas = new OffscreenCanvas(40, 30);
		var results = [];

		results.push('width: ' + canvas.width);
		results.push('height: ' + canvas.height);
		results.push('instanceof: ' + (canvas instanceof OffscreenCanvas));

		var ctx = canvas.getContext('2d');
		results.push('ctx exists: ' + (ctx !== null));
		results.push('same ctx: ' + (ctx === canvas.getContext('2d')));
		results.push('ctx.canvas === canvas: ' + (ctx.canvas === canvas));
		results.push('webgl: ' + canvas.getContext('webgl'));

		results.push('default fillStyle: ' + ctx.fillStyle);
		ctx.fillStyle = 'red';
		results.push('red fillStyle: ' + ctx.fillStyle);
		ctx.fillStyle = 'not a color';
		results.push('ignored fillStyle: ' + ctx.fillStyle);
		ctx.fillStyle = 0x8000ff00;
		results.push('numeric fillStyle: ' + ctx.fillStyle);

		ctx.strokeStyle = '#00f';
		results.push('strokeStyle: ' + ctx.strokeStyle);

		results.push('default lineWidth: ' + ctx.lineWidth);
		ctx.lineWidth = -3;
		results.push('ignored lineWidth: ' + ctx.lineWidth);

		results.push('default font: ' + ctx.font);
		results.join('\n');
	`)

	expected := `width: 40
height: 30
instanceof: true
ctx exists: true
same ctx: true
ctx.canvas === canvas: true
webgl: null
default fillStyle: #000000
red fillStyle: #ff0000
ignored fillStyle: #ff0000
numeric fillStyle: rgba(0, 255, 0, 0.502)
strokeStyle: #0000ff
default lineWidth: 1
ignored lineWidth: 1
default font: 10px sans-serif`

	if got != expected {
		t.Errorf("Unexpected result:\nGot:\n%s\n\nExpected:\n%s", got, expected)
	}
	if n := len(r.Env().Canvases()); n != 1 {
		t.Errorf("Expected 1 canvas in the env, got %d", n)
	}
}

func TestContextDrawsPixels(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var canvas = new OffscreenCanvas(10, 10);
		var ctx = canvas.getContext('2d');
		ctx.fillStyle = '#ff0000';
		ctx.fillRect(0, 0, 5, 5);

		ctx.fillStyle = 'lime';
		ctx.beginPath();
		ctx.rect(5, 5, 5, 5);
		ctx.fill();

		var a = ctx.getImageData(2, 2, 1, 1).data;
		var b = ctx.getImageData(7, 7, 1, 1).data;
		var c = ctx.getImageData(7, 2, 1, 1).data;
		[a[0], a[1], a[2], a[3], b[0], b[1], b[2], b[3], c[3]].join(',');
	`)

	if got != "255,0,0,255,0,255,0,255,0" {
		t.Errorf("Unexpected pixels: %s", got)
	}

	img, err := r.Env().Canvases()[0].ToImage()
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	if c := img.RGBAAt(1, 1); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("Expected red at (1,1), got %v", c)
	}
}

func TestContextTextAndPaths(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var ctx = new OffscreenCanvas(80, 40).getContext('2d');
		ctx.font = 'bold 20px sans-serif';
		var m = ctx.measureText('Hello');
		ctx.fillText('Hello', 2, 30);

		ctx.beginPath();
		ctx.moveTo(0, 0);
		ctx.lineTo(79, 39);
		ctx.closePath();
		ctx.stroke();

		var d = ctx.getImageData();
		var inked = 0;
		for (var i = 3; i < d.data.length; i += 4) {
			if (d.data[i] > 0) inked++;
		}
		[m.width > 0, m.fontBoundingBoxAscent > 0, inked > 20, d.width, d.height].join(',');
	`)

	if got != "true,true,true,80,40" {
		t.Errorf("Unexpected result: %s", got)
	}
}

func TestImageDataConstructors(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var results = [];
		var blank = new ImageData(2, 3);
		results.push(blank.width + 'x' + blank.height + ' ' + blank.data.length + ' ' + blank.data[0]);
		results.push('instanceof: ' + (blank instanceof ImageData));

		var bytes = new Uint8ClampedArray(16);
		var fromBytes = new ImageData(bytes, 2);
		results.push(fromBytes.width + 'x' + fromBytes.height);

		try {
			new ImageData(new Uint8ClampedArray(10), 2, 2);
			results.push('no error');
		} catch (e) {
			results.push('bad length: ' + (e instanceof TypeError));
		}
		results.join('\n');
	`)

	expected := `2x3 24 0
instanceof: true
2x2
bad length: true`
	if got != expected {
		t.Errorf("Unexpected result:\nGot:\n%s\n\nExpected:\n%s", got, expected)
	}
}

func TestPutImageDataRoundTrip(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var ctx = new OffscreenCanvas(4, 4).getContext('2d');
		ctx.fillStyle = 'blue';
		ctx.fillRect(0, 0, 4, 4);

		var img = new ImageData(2, 2);
		for (var i = 0; i < img.data.length; i += 4) {
			img.data[i] = 10;
			img.data[i + 1] = 20;
			img.data[i + 2] = 30;
			img.data[i + 3] = 128;
		}
		ctx.putImageData(img, 1, 1);

		var back = ctx.getImageData(1, 1, 2, 2).data;
		var corner = ctx.getImageData(0, 0, 1, 1).data;
		[back[3], back[15], corner[2], corner[3]].join(',');
	`)

	// putImageData replaces pixels, so alpha stays 128 over the blue fill.
	if got != "128,128,255,255" {
		t.Errorf("Unexpected pixels: %s", got)
	}
}

func TestPutImageDataAcceptsPlainObjects(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var ctx = new OffscreenCanvas(2, 1).getContext('2d');
		ctx.putImageData({width: 1, height: 1, data: [255, 0, 0, 255]}, 1, 0);
		var d = ctx.getImageData().data;
		[d[3], d[4], d[7]].join(',');
	`)
	if got != "0,255,255" {
		t.Errorf("Unexpected pixels: %s", got)
	}
}

func TestDrawImageFromCanvas(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var src = new OffscreenCanvas(2, 2);
		var sctx = src.getContext('2d');
		sctx.fillStyle = 'red';
		sctx.fillRect(0, 0, 2, 2);

		var ctx = new OffscreenCanvas(8, 8).getContext('2d');
		ctx.drawImage(src, 0, 0);
		ctx.drawImage(src, 4, 4, 4, 4);
		ctx.drawImage(src, 0, 0, 1, 1, 6, 0, 2, 2);

		function alphaAt(x, y) { return ctx.getImageData(x, y, 1, 1).data[3]; }
		[alphaAt(1, 1), alphaAt(3, 3), alphaAt(6, 6), alphaAt(7, 1)].join(',');
	`)
	if got != "255,0,255,255" {
		t.Errorf("Unexpected alpha values: %s", got)
	}
}

func TestDrawImageErrors(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var ctx = new OffscreenCanvas(4, 4).getContext('2d');
		var results = [];
		function attempt(name, fn) {
			try {
				fn();
				results.push(name + ': ok');
			} catch (e) {
				results.push(name + ': ' + e.name);
			}
		}
		attempt('object', function() { ctx.drawImage({}, 0, 0); });
		attempt('unloaded', function() { ctx.drawImage(new Image(), 0, 0); });
		attempt('arity', function() { ctx.drawImage(new OffscreenCanvas(1, 1), 0, 0, 1); });
		attempt('getImageData', function() { ctx.getImageData(0, 0, 0, 1); });
		results.join('\n');
	`)

	expected := `object: TypeError
unloaded: TypeError
arity: TypeError
getImageData: TypeError`
	if got != expected {
		t.Errorf("Unexpected result:\nGot:\n%s\n\nExpected:\n%s", got, expected)
	}
}

func TestOffscreenCanvasUnimplementedMethods(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var canvas = new OffscreenCanvas(1, 1);
		var results = [];
		['transferToImageBitmap', 'addEventListener', 'removeEventListener', 'dispatchEvent'].forEach(function(m) {
			try {
				canvas[m]('load', function() {});
				results.push(m + ': ok');
			} catch (e) {
				results.push(m + ': ' + e.name + ' ' + e.message);
			}
		});
		results.join('\n');
	`)

	expected := `transferToImageBitmap: Error Method not implemented.
addEventListener: Error Method not implemented.
removeEventListener: Error Method not implemented.
dispatchEvent: Error Method not implemented.`
	if got != expected {
		t.Errorf("Unexpected result:\nGot:\n%s\n\nExpected:\n%s", got, expected)
	}
}

func TestImageLoadsAndDraws(t *testing.T) {
	r := newTestRuntime(t)
	r.VM().Set("greenPNG", pngDataURL(t, 3, 2, color.NRGBA{G: 255, A: 255}))

	mustExecute(t, r, `
		var log = [];
		var img = new Image();
		log.push('complete before: ' + img.complete);
		img.onload = function(e) {
			log.push('load ' + e.type + ' ' + (e.target === img) + ' ' + (this === img));
			log.push('size ' + img.width + 'x' + img.height + ' natural ' + img.naturalWidth + 'x' + img.naturalHeight);
			var ctx = new OffscreenCanvas(4, 4).getContext('2d');
			ctx.drawImage(img, 1, 1);
			var d = ctx.getImageData(2, 2, 1, 1).data;
			log.push('pixel ' + d[0] + ',' + d[1] + ',' + d[2] + ',' + d[3]);
		};
		img.src = greenPNG;
		log.push('loading: ' + img.complete);
	`)

	if err := runFor(t, r, 5*time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := mustExecute(t, r, "log.join('\\n')")
	expected := `complete before: true
loading: false
load load true true
size 3x2 natural 3x2
pixel 0,255,0,255`
	if got != expected {
		t.Errorf("Unexpected result:\nGot:\n%s\n\nExpected:\n%s", got, expected)
	}
}

func TestImageOnLoadAfterLoadFiresImmediately(t *testing.T) {
	r := newTestRuntime(t)
	r.VM().Set("png", pngDataURL(t, 1, 1, color.NRGBA{R: 255, A: 255}))

	mustExecute(t, r, `
		var img = new Image(5, 6);
		img.src = png;
	`)
	if err := runFor(t, r, 5*time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := mustExecute(t, r, `
		var fired = 0;
		img.onload = function() { fired++; };
		[fired, img.width, img.height, typeof img.onload].join(',');
	`)
	if got != "1,5,6,function" {
		t.Errorf("Unexpected result: %s", got)
	}
}

func TestImageErrorEvent(t *testing.T) {
	r := newTestRuntime(t)

	mustExecute(t, r, `
		var log = [];
		var img = new Image();
		img.onload = function() { log.push('load'); };
		img.onerror = function(e) { log.push('error ' + e.type + ' ' + (e.message.length > 0)); };
		img.src = 'data:image/png;base64,AAAA';
	`)
	if err := runFor(t, r, 5*time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := mustExecute(t, r, "log.join(',')"); got != "error error true" {
		t.Errorf("Unexpected events: %s", got)
	}
}

func TestImageEventListeners(t *testing.T) {
	r := newTestRuntime(t)
	r.VM().Set("png", pngDataURL(t, 1, 1, color.NRGBA{B: 255, A: 255}))

	mustExecute(t, r, `
		var calls = [];
		var img = new Image();
		function first() { calls.push('first'); }
		function second() { calls.push('second'); }
		img.addEventListener('load', first);
		img.addEventListener('load', first);
		img.addEventListener('load', second);
		img.removeEventListener('load', second);
		img.onload = null;
		img.src = png;
	`)
	if err := runFor(t, r, 5*time.Second); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := mustExecute(t, r, "calls.join(',') + ' ' + img.onload"); got != "first null" {
		t.Errorf("Unexpected listener calls: %s", got)
	}
}

func TestBinderNative(t *testing.T) {
	r := newTestRuntime(t)

	v, err := r.Execute("new OffscreenCanvas(3, 3)")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	c, ok := r.Binder().Native(v).(*canvas.OffscreenCanvas)
	if !ok {
		t.Fatalf("Expected *canvas.OffscreenCanvas, got %T", r.Binder().Native(v))
	}
	if r.Binder().OffscreenCanvas(c) != v {
		t.Error("Expected the wrapper to be reused")
	}
}

func TestDisposeFromScript(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var kept = new OffscreenCanvas(2, 2);
		var gone = new OffscreenCanvas(3, 3);
		var ctx = gone.getContext('2d');
		var types = typeof gone.dispose + ',' + typeof ctx.dispose;
		ctx.dispose();
		gone.dispose();
		gone.dispose();
		ctx.fillRect(0, 0, 1, 1);
		types;
	`)
	if got != "function,function" {
		t.Errorf("Unexpected dispose types: %s", got)
	}

	canvases := r.Env().Canvases()
	if len(canvases) != 1 || canvases[0].Width() != 2 {
		t.Fatalf("Expected only the 2x2 canvas to be exported, got %d canvases", len(canvases))
	}
	if n := len(r.binder.wrappers); n != 1 {
		t.Errorf("Expected only the kept canvas wrapper, got %d", n)
	}
}

func TestWrappersDoNotAccumulate(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var c = new OffscreenCanvas(4, 4);
		var ctx = c.getContext('2d');
		for (var i = 0; i < 500; i++) {
			ctx.putImageData(ctx.getImageData(0, 0, 4, 4), 0, 0);
			new ImageData(4, 4);
			new Image();
		}
		(ctx.getImageData() instanceof ImageData) + ',' + (ctx.canvas === c);
	`)
	if got != "true,true" {
		t.Errorf("Unexpected result: %s", got)
	}
	if n := len(r.binder.wrappers); n != 2 {
		t.Errorf("Expected wrappers for the canvas and its context only, got %d", n)
	}
}

func TestScriptSizeLimits(t *testing.T) {
	r := newTestRuntime(t)

	got := mustExecute(t, r, `
		var out = [];
		[function() { new OffscreenCanvas(100000, 100000); },
		 function() { new ImageData(1000000, 1000000); }].forEach(function(f) {
			try { f(); out.push('ok'); } catch (e) { out.push(e.name); }
		});
		out.join(',');
	`)
	if got != "TypeError,TypeError" {
		t.Errorf("Unexpected result: %s", got)
	}
}
