package server

import (
	"java-lsp/src/config"
	"java-lsp/src/internal/common"
	"java-lsp/src/javac"
)

// ProgressReporter is the three-phase progress protocol wrapped around
// long-running compiler reconfiguration.
type ProgressReporter interface {
	StartProgress(message string)
	ReportProgress(message string)
	EndProgress()
}

// CompilerCache memoizes the heavyweight compiler instance. The instance is
// rebuilt when a recognized build descriptor changed or when the active
// settings differ by value from the settings snapshot the cached instance was
// built with. Exactly one instance is live at a time; superseded instances
// are discarded, never reused.
//
// Single-owner state: requests run one at a time, so there is no locking. A
// concurrent caller would need mutual exclusion around the whole
// check-rebuild-store sequence to keep at most one rebuild per invalidation.
type CompilerCache struct {
	toolchain *javac.Toolchain
	progress  ProgressReporter

	workspaceRoot  string
	settings       config.Settings
	cached         javac.Compiler
	cachedSettings config.Settings
	modifiedBuild  bool
}

// NewCompilerCache creates a cache with no live instance. The first Compiler
// call builds one.
func NewCompilerCache(toolchain *javac.Toolchain, progress ProgressReporter) *CompilerCache {
	return &CompilerCache{
		toolchain:     toolchain,
		progress:      progress,
		modifiedBuild: true,
	}
}

// SetWorkspaceRoot records the workspace root. Must be called before the
// first Compiler call.
func (c *CompilerCache) SetWorkspaceRoot(root string) {
	c.workspaceRoot = root
}

// UpdateSettings replaces the active settings. The next Compiler call
// rebuilds if they differ by value from the cached snapshot.
func (c *CompilerCache) UpdateSettings(settings config.Settings) {
	c.settings = settings
}

// MarkBuildModified flags the build as dirty, forcing a rebuild on the next
// Compiler call. Set when pom.xml or BUILD changes.
func (c *CompilerCache) MarkBuildModified() {
	c.modifiedBuild = true
}

// Compiler returns the cached instance, rebuilding it first when needed.
func (c *CompilerCache) Compiler() (javac.Compiler, error) {
	if c.needsCompiler() {
		compiler, err := c.createCompiler()
		if err != nil {
			return nil, err
		}
		c.cached = compiler
		c.cachedSettings = c.settings
		c.modifiedBuild = false
	}
	return c.cached, nil
}

func (c *CompilerCache) needsCompiler() bool {
	if c.modifiedBuild {
		return true
	}
	if !c.settings.Equal(c.cachedSettings) {
		common.LSPLogger.Info("Settings %+v differ from %+v", c.settings, c.cachedSettings)
		return true
	}
	return false
}

func (c *CompilerCache) createCompiler() (javac.Compiler, error) {
	if c.workspaceRoot == "" {
		return nil, common.PreconditionViolation("can't create compiler because workspace root has not been initialized")
	}

	c.progress.StartProgress("Configure javac")
	c.progress.ReportProgress("Finding source roots")

	// If the class path is specified by the user, don't infer anything.
	classPath := c.settings.AbsoluteClassPath()
	if len(classPath) > 0 {
		c.progress.EndProgress()
		return c.toolchain.NewCompiler(javac.Config{
			ClassPath:  classPath,
			AddExports: c.settings.AddExports,
		}), nil
	}

	// Otherwise combine inference with the declared external dependencies.
	infer := c.toolchain.NewInferrer(c.workspaceRoot, c.settings.ExternalDependencies)

	c.progress.ReportProgress("Inferring class path")
	classPath = infer.ClassPath()

	c.progress.ReportProgress("Inferring doc path")
	docPath := infer.DocPath()

	c.progress.EndProgress()
	return c.toolchain.NewCompiler(javac.Config{
		ClassPath:  classPath,
		DocPath:    docPath,
		AddExports: c.settings.AddExports,
	}), nil
}
