package keepsake

import (
	"path/filepath"
	"reflect"
	"runtime"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/keepsake-dev/keepsake/log"
)

const noActiveSystemName = ""

// System is a user-defined function that is executed at every tick, after the
// Load and Post-Load phases and before the Save phase.
type System func(wCtx WorldContext) error

// systemType is an internal entry used to track registered systems.
type systemType struct {
	Name string
	Fn   System
}

type systemManager struct {
	// Registered systems in the order that they were registered.
	// This is represented as a list as maps in Go are unordered.
	registeredSystems     []systemType
	registeredInitSystems []systemType

	// currentSystem is the name of the system that is currently running.
	currentSystem string
}

func newSystemManager() *systemManager {
	return &systemManager{
		registeredSystems:     make([]systemType, 0),
		registeredInitSystems: make([]systemType, 0),
		currentSystem:         noActiveSystemName,
	}
}

// RegisterSystems registers one or more systems with the world. Systems run
// in registration order. There can only be one system with a given name,
// which is derived from the function name. If there is a duplicate system
// name, an error is returned and none of the systems are registered.
func RegisterSystems(w *World, systemFuncs ...System) error {
	return w.systemManager.registerSystems(false, systemFuncs...)
}

// RegisterInitSystems registers systems that run only once, at tick 0,
// before the ordinary systems of that tick.
func RegisterInitSystems(w *World, systemFuncs ...System) error {
	return w.systemManager.registerSystems(true, systemFuncs...)
}

func (m *systemManager) registerSystems(isInit bool, systemFuncs ...System) error {
	// Collect the entries first so registration is all-or-nothing.
	systemsToRegister := make([]systemType, 0, len(systemFuncs))

	for _, systemFunc := range systemFuncs {
		// Obtain the name of the system function using reflection.
		systemName := filepath.Base(runtime.FuncForPC(reflect.ValueOf(systemFunc).Pointer()).Name())

		if slices.ContainsFunc(
			systemsToRegister,
			func(s systemType) bool { return s.Name == systemName },
		) {
			return eris.Errorf("duplicate system %q in slice", systemName)
		}

		if m.isRegistered(systemName) {
			return eris.Errorf("system %q is already registered", systemName)
		}

		systemsToRegister = append(systemsToRegister, systemType{Name: systemName, Fn: systemFunc})
	}

	if isInit {
		m.registeredInitSystems = append(m.registeredInitSystems, systemsToRegister...)
	} else {
		m.registeredSystems = append(m.registeredSystems, systemsToRegister...)
	}
	return nil
}

func (m *systemManager) isRegistered(systemName string) bool {
	return slices.ContainsFunc(
		slices.Concat(m.registeredSystems, m.registeredInitSystems),
		func(s systemType) bool { return s.Name == systemName },
	)
}

// GetRegisteredSystemNames returns the names of all registered systems in the
// order that they were registered.
func (m *systemManager) GetRegisteredSystemNames() []string {
	names := make([]string, 0, len(m.registeredInitSystems)+len(m.registeredSystems))
	for _, sys := range slices.Concat(m.registeredInitSystems, m.registeredSystems) {
		names = append(names, sys.Name)
	}
	return names
}

// GetCurrentSystem returns the name of the currently running system, or an
// empty string if no system is running.
func (m *systemManager) GetCurrentSystem() string {
	return m.currentSystem
}

// runSystems runs all the registered systems in the order that they were
// registered. Init systems run first, at tick 0 only.
func (m *systemManager) runSystems(w *World) error {
	var systemsToRun []systemType
	if w.CurrentTick() == 0 {
		systemsToRun = slices.Concat(m.registeredInitSystems, m.registeredSystems)
	} else {
		systemsToRun = m.registeredSystems
	}

	for _, sys := range systemsToRun {
		m.currentSystem = sys.Name

		// Inject the system name into the logger.
		wCtx := &worldContext{w: w, logger: log.CreateSystemLogger(&w.logger, sys.Name)}

		if err := sys.Fn(wCtx); err != nil {
			m.currentSystem = noActiveSystemName
			return eris.Wrapf(err, "system %s generated an error", sys.Name)
		}
	}
	m.currentSystem = noActiveSystemName
	return nil
}
