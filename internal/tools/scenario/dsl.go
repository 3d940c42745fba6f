// Package scenario runs Lua-scripted rules scenarios in process.
//
// A script builds a Scenario with Scenario.new and chained method calls,
// then returns it. Each call appends a Step; the Runner executes the steps
// in order against a memory store and fails on unmet expectations.
package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a parsed scenario script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs the Lua file at path and returns the Scenario
// it builds.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := newState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadScenario runs Lua source named name.
func LoadScenario(name, source string) (*Scenario, error) {
	state := newState()
	if err := lua.LoadBuffer(state, source, name, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = name
	}
	return scenario, nil
}

func newState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerScenarioType(state)
	registerScenarioConstructor(state)
	return state
}

func runChunk(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	return scenario, nil
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{{Name: "new", Function: scenarioNew}}, 0)
	state.SetGlobal("Scenario")
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&Scenario{Name: name})
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "actor", Function: namedStep("actor", "id")},
	{Name: "scene", Function: namedStep("scene", "id")},
	{Name: "token", Function: scenarioToken},
	{Name: "delete_token", Function: scenarioDeleteToken},
	{Name: "target", Function: scenarioTarget},
	{Name: "roll", Function: tableStep("roll")},
	{Name: "reaction", Function: tableStep("reaction")},
	{Name: "adversary_roll", Function: tableStep("adversary_roll")},
	{Name: "damage_roll", Function: tableStep("damage_roll")},
	{Name: "arm_critical", Function: tableStep("arm_critical")},
	{Name: "damage", Function: tableStep("damage")},
	{Name: "heal", Function: tableStep("heal")},
	{Name: "direct_damage", Function: tableStep("direct_damage")},
	{Name: "undo", Function: scenarioUndo},
	{Name: "expect_hp", Function: expectStep("expect_hp")},
	{Name: "expect_armor", Function: expectStep("expect_armor")},
}

// namedStep handles s:kind(name, {opts}).
func namedStep(kind, key string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		name := lua.CheckString(state, 2)
		data := optionalTable(state, 3)
		data[key] = name
		appendStep(scenario, kind, data)
		state.PushValue(1)
		return 1
	}
}

// tableStep handles s:kind({opts}).
func tableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		appendStep(scenario, kind, optionalTable(state, 2))
		state.PushValue(1)
		return 1
	}
}

// expectStep handles s:kind(target, value).
func expectStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		target := lua.CheckString(state, 2)
		value := lua.CheckInteger(state, 3)
		appendStep(scenario, kind, map[string]any{"target": target, "value": value})
		state.PushValue(1)
		return 1
	}
}

func scenarioToken(state *lua.State) int {
	scenario := checkScenario(state)
	sceneID := lua.CheckString(state, 2)
	tokenID := lua.CheckString(state, 3)
	data := optionalTable(state, 4)
	data["scene"] = sceneID
	data["id"] = tokenID
	appendStep(scenario, "token", data)
	state.PushValue(1)
	return 1
}

func scenarioDeleteToken(state *lua.State) int {
	scenario := checkScenario(state)
	sceneID := lua.CheckString(state, 2)
	tokenID := lua.CheckString(state, 3)
	appendStep(scenario, "delete_token", map[string]any{"scene": sceneID, "id": tokenID})
	state.PushValue(1)
	return 1
}

func scenarioTarget(state *lua.State) int {
	scenario := checkScenario(state)
	var targets []any
	for i := 2; i <= state.Top(); i++ {
		targets = append(targets, lua.CheckString(state, i))
	}
	appendStep(scenario, "target", map[string]any{"targets": targets})
	state.PushValue(1)
	return 1
}

func scenarioUndo(state *lua.State) int {
	scenario := checkScenario(state)
	data := map[string]any{}
	if !state.IsNoneOrNil(2) {
		data["label"] = lua.CheckString(state, 2)
	}
	appendStep(scenario, "undo", data)
	state.PushValue(1)
	return 1
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if scenario == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

// tableToGo returns a []any for sequences and a map otherwise.
func tableToGo(state *lua.State, index int) any {
	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				maxIndex = max(maxIndex, idx)
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}
	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
