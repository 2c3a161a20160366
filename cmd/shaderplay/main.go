package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fsnotify/fsnotify"
	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/shaderplay/shaderplay/control"
	"github.com/shaderplay/shaderplay/events"
	"github.com/shaderplay/shaderplay/glbackend"
	"github.com/shaderplay/shaderplay/glfwcontext"
	"github.com/shaderplay/shaderplay/player"
	"github.com/shaderplay/shaderplay/state"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	var width = flag.Int("width", 1280, "Width of the window")
	var height = flag.Int("height", 720, "Height of the window")
	var shaderFile = flag.String("shader", "", "Fragment shader file to load and watch for changes")
	var listen = flag.String("listen", "", "Address for the WebSocket control surface (e.g. :8090)")
	flag.Parse()

	if err := glfwcontext.InitGraphics(); err != nil {
		log.Fatalf("Failed to initialize graphics: %v", err)
	}
	defer glfwcontext.TerminateGraphics()

	ctx, err := glfwcontext.New(*width, *height, "shaderplay")
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	defer ctx.Shutdown()
	ctx.MakeCurrent()

	dev, err := glbackend.New()
	if err != nil {
		log.Fatalf("Failed to initialize GL backend: %v", err)
	}
	defer dev.Shutdown()

	store := &state.Store{}
	bus := &events.Bus{}
	surface := control.NewSurface(store, bus)

	if *shaderFile != "" {
		loadShaderFile(surface, *shaderFile)
		watcher, err := watchShaderFile(surface, *shaderFile)
		if err != nil {
			log.Printf("Shader file watching disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	if *listen != "" {
		server := control.NewServer(surface, bus)
		go func() {
			if err := server.ListenAndServe(*listen); err != nil {
				log.Printf("Control server stopped: %v", err)
			}
		}()
	}

	p := player.New(ctx, dev, store, bus)
	if err := p.Init(); err != nil {
		log.Fatalf("Failed to compile initial shader: %v", err)
	}
	defer p.Shutdown()

	paused := false
	ctx.RegisterKeyCallback(glfw.KeySpace, func() {
		paused = !paused
		if paused {
			surface.Stop()
		} else {
			surface.Play()
		}
	})

	log.Println("Starting render loop...")
	for !ctx.ShouldClose() {
		surface.UpdatePointer(ctx.PointerSample())
		if !p.Frame(ctx.Time()) {
			break
		}
		ctx.EndFrame()
	}
}

func loadShaderFile(surface *control.Surface, path string) {
	code, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Failed to read shader file %s: %v", path, err)
		return
	}
	surface.SetShader(string(code))
	log.Printf("Loaded shader from %s", path)
}

// watchShaderFile hot-swaps the running shader whenever the file
// changes on disk. Watching the directory survives editors that
// replace the file instead of writing in place.
func watchShaderFile(surface *control.Surface, path string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					loadShaderFile(surface, path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Shader watcher error: %v", err)
			}
		}
	}()
	return watcher, nil
}
