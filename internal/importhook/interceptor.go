// Package importhook records module loads and reloads by wrapping the host's
// loader entry points.
package importhook

import (
	"xdtrace/internal/dispatch"
	"xdtrace/internal/host"
	"xdtrace/internal/record"
)

// Interceptor wraps a host.Importer for the duration of a run.
type Interceptor struct {
	s             *dispatch.Session
	importer      host.Importer
	collectReturn bool

	prevImport host.ImportFunc
	prevReload host.ReloadFunc
	installed  bool
}

// New returns an interceptor recording into s. Return records for loads are
// only produced when collectReturn is set.
func New(s *dispatch.Session, importer host.Importer, collectReturn bool) *Interceptor {
	return &Interceptor{s: s, importer: importer, collectReturn: collectReturn}
}

// Install replaces the host loaders. Installing twice is a no-op.
func (ic *Interceptor) Install() {
	if ic.installed {
		return
	}
	ic.prevImport = ic.importer.SetImportFunc(ic.load)
	ic.prevReload = ic.importer.SetReloadFunc(ic.reload)
	ic.installed = true
}

// Uninstall restores the loaders that were in place before Install.
func (ic *Interceptor) Uninstall() {
	if !ic.installed {
		return
	}
	ic.importer.SetImportFunc(ic.prevImport)
	ic.importer.SetReloadFunc(ic.prevReload)
	ic.prevImport, ic.prevReload = nil, nil
	ic.installed = false
}

// Installed reports whether the host loaders are currently wrapped.
func (ic *Interceptor) Installed() bool { return ic.installed }

func (ic *Interceptor) load(fr *host.Frame, name string, fromList []string) (mod host.Value, err error) {
	if !ic.s.Tracing() || ic.prevImport == nil {
		return ic.delegateImport(fr, name, fromList)
	}
	ic.s.Append(record.Import{
		Header:   ic.s.Header(ic.s.Stack.Depth()),
		Entry:    ic.s.Entry(fr),
		Module:   name,
		FromList: append([]string(nil), fromList...),
	})
	ic.s.Stack.Push()
	defer func() { ic.leave(mod, err) }()
	return ic.prevImport(fr, name, fromList)
}

func (ic *Interceptor) reload(fr *host.Frame, module host.Value) (mod host.Value, err error) {
	if !ic.s.Tracing() || ic.prevReload == nil {
		return ic.delegateReload(fr, module)
	}
	ic.s.Append(record.Reload{
		Header: ic.s.Header(ic.s.Stack.Depth()),
		Entry:  ic.s.Entry(fr),
		Module: ModuleName(module),
	})
	ic.s.Stack.Push()
	defer func() { ic.leave(mod, err) }()
	return ic.prevReload(fr, module)
}

// leave closes a load whether it succeeded, failed or panicked.
func (ic *Interceptor) leave(mod host.Value, err error) {
	depth := ic.s.Stack.Pop()
	if !ic.collectReturn {
		return
	}
	if err != nil {
		mod = nil
	}
	ic.s.Append(record.Return{Header: ic.s.Header(depth), Value: mod})
}

func (ic *Interceptor) delegateImport(fr *host.Frame, name string, fromList []string) (host.Value, error) {
	if ic.prevImport == nil {
		return nil, ErrNoLoader
	}
	return ic.prevImport(fr, name, fromList)
}

func (ic *Interceptor) delegateReload(fr *host.Frame, module host.Value) (host.Value, error) {
	if ic.prevReload == nil {
		return nil, ErrNoLoader
	}
	return ic.prevReload(fr, module)
}

// ModuleName reads a module's "__name__" attribute; "None" when absent.
func ModuleName(module host.Value) string {
	if o, ok := module.(host.Object); ok {
		if v, ok := o.Attr("__name__"); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return "None"
}
