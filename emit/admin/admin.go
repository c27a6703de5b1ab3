// Package admin emits Generated.Resources, the schema an admin UI renders
// forms and tables from: one Resource per stored model and a typed form
// field per column.
package admin

import (
	"strings"

	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/model/syntax"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory this emitter reads
	Domain = "db"
	// ElmPath is the resource module, relative to the Elm root
	ElmPath = "Generated/Resources.elm"
)

// FieldType selects the input an admin form renders for a column.
type FieldType string

const (
	TextInput      FieldType = "TextInput"
	NumberInput    FieldType = "NumberInput"
	CheckboxInput  FieldType = "CheckboxInput"
	DateTimeInput  FieldType = "DateTimeInput"
	JsonEditor     FieldType = "JsonEditor"
	RichTextEditor FieldType = "RichTextEditor"
	ReadOnlyId     FieldType = "ReadOnlyId"
)

// FieldTypes in declaration order, with the form control name each maps to.
var FieldTypes = []struct {
	Type    FieldType
	Control string
}{
	{TextInput, "text"},
	{NumberInput, "number"},
	{CheckboxInput, "checkbox"},
	{DateTimeInput, "datetime"},
	{JsonEditor, "json"},
	{RichTextEditor, "rich-text"},
	{ReadOnlyId, "readonly"},
}

// Columns maintained by the server, never edited through the admin UI.
var infrastructure = map[string]bool{
	"host":       true,
	"created_at": true,
	"updated_at": true,
	"deleted_at": true,
}

var numeric = map[string]bool{
	"f32": true, "f64": true,
}

func init() {
	for _, w := range []string{"8", "16", "32", "64", "128", "size"} {
		numeric["i"+w] = true
		numeric["u"+w] = true
	}
}

// TypeOf picks the input for a field from its source type.
func TypeOf(f model.Field) FieldType {
	core := f.Type
	if core != nil && core.Is("Option", 1) {
		core = core.Args[0]
	}
	if core == nil {
		return TextInput
	}
	switch {
	case core.Name == "DatabaseId":
		return ReadOnlyId
	case core.Name == "JsonBlob":
		return JsonEditor
	case core.Name == "RichContent":
		return RichTextEditor
	case typemap.IsTimestamp(core):
		return DateTimeInput
	case core.Name == "bool":
		return CheckboxInput
	case numeric[core.Name]:
		return NumberInput
	}
	return TextInput
}

// Resources are the Primary models that own a table. A struct referenced
// through JsonBlob<T> anywhere in the domain is embedded data, not a table.
func Resources(models []model.Classified) []model.Classified {
	embedded := map[string]bool{}
	for _, m := range models {
		for _, f := range m.Fields {
			collectJSONBlobs(f.Type, embedded)
		}
	}
	var out []model.Classified
	for _, m := range model.Primaries(emit.Unique(models)) {
		if !embedded[m.Name] {
			out = append(out, m)
		}
	}
	return out
}

func collectJSONBlobs(t *syntax.TypeExpr, into map[string]bool) {
	if t == nil {
		return
	}
	if t.Is("JsonBlob", 1) {
		inner := t.Args[0]
		for inner != nil && (inner.Is("Vec", 1) || inner.Is("Option", 1)) {
			inner = inner.Args[0]
		}
		if inner != nil {
			into[inner.Name] = true
		}
	}
	for _, a := range t.Args {
		collectJSONBlobs(a, into)
	}
}

// FormFields are the editable columns of a resource.
func FormFields(m model.Classified) []model.Field {
	var out []model.Field
	for _, f := range m.Fields {
		if !infrastructure[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// Label turns a column name into a heading: created_at -> Created At.
func Label(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Generate renders Resources.elm from the persistence models.
func Generate(models []model.Classified) *emit.Result {
	resources := Resources(models)

	decls := []elm.Decl{elm.Section{Title: "RESOURCES"}}
	decls = append(decls, resourceDecls(resources)...)
	decls = append(decls, elm.Section{Title: "FORMS"})
	decls = append(decls, formDecls(resources)...)
	decls = append(decls, elm.Section{Title: "TABLES"})
	decls = append(decls, tableDecls(resources)...)
	decls = append(decls, elm.Section{Title: "HELPERS"}, getStringField())

	res := &emit.Result{Models: len(resources)}
	res.Add(emit.File{
		Location: emit.Location{Root: emit.RootElm, Path: ElmPath},
		Content: elm.Format(elm.Module{
			Name:    "Generated.Resources",
			Doc:     "Admin resources for every stored model.\n\n" + emit.GeneratedNotice,
			Imports: []elm.Import{{Module: "Json.Decode", As: "Decode"}},
			Decls:   decls,
		}),
	})
	return res
}

// noResource keeps the union inhabited when there are no tables.
const noResource = "NoResource"

func resourceDecls(resources []model.Classified) []elm.Decl {
	union := elm.Union{Doc: "Every table the admin UI manages", Name: "Resource"}
	var toString, fromString []elm.Branch
	var all []elm.Expr
	for _, m := range resources {
		key := emit.ToSnakeCase(m.Name)
		union.Variants = append(union.Variants, elm.Variant{Name: m.Name})
		toString = append(toString, elm.Branch{Pattern: m.Name, Body: elm.Str(key)})
		fromString = append(fromString, elm.Branch{Pattern: elm.Quote(key), Body: elm.Call("Just", elm.Ref(m.Name))})
		all = append(all, elm.Ref(m.Name))
	}
	if len(resources) == 0 {
		union.Variants = []elm.Variant{{Name: noResource}}
		toString = []elm.Branch{{Pattern: noResource, Body: elm.Str("")}}
	}
	fromString = append(fromString, elm.Branch{Pattern: "_", Body: elm.Ref("Nothing")})

	return []elm.Decl{
		union,
		elm.Func{
			Doc:    "Route and API name, matching the table's model name in snake case",
			Name:   "resourceToString",
			Type:   "Resource -> String",
			Params: []string{"resource"},
			Body:   elm.Case{Subject: elm.Ref("resource"), Branches: toString},
		},
		elm.Func{
			Name:   "resourceFromString",
			Type:   "String -> Maybe Resource",
			Params: []string{"str"},
			Body:   elm.Case{Subject: elm.Ref("str"), Branches: fromString},
		},
		elm.Func{
			Name: "allResources",
			Type: "List Resource",
			Body: elm.List{Items: all},
		},
	}
}

func formDecls(resources []model.Classified) []elm.Decl {
	fieldType := elm.Union{Name: "FieldType"}
	toString := make([]elm.Branch, 0, len(FieldTypes))
	for _, ft := range FieldTypes {
		fieldType.Variants = append(fieldType.Variants, elm.Variant{Name: string(ft.Type)})
		toString = append(toString, elm.Branch{Pattern: string(ft.Type), Body: elm.Str(ft.Control)})
	}

	decls := []elm.Decl{
		elm.TypeAlias{Name: "FormModel", Fields: []elm.Field{
			{Name: "resource", Type: "Resource"},
			{Name: "fields", Type: "List FormField"},
			{Name: "errors", Type: "List String"},
		}},
		elm.TypeAlias{Name: "FormField", Fields: []elm.Field{
			{Name: "name", Type: "String"},
			{Name: "label", Type: "String"},
			{Name: "value", Type: "String"},
			{Name: "fieldType", Type: "FieldType"},
			{Name: "required", Type: "Bool"},
		}},
		fieldType,
		elm.Func{
			Name:   "fieldTypeToString",
			Type:   "FieldType -> String",
			Params: []string{"fieldType"},
			Body:   elm.Case{Subject: elm.Ref("fieldType"), Branches: toString},
		},
		elm.Func{
			Doc:    "An empty form for resource",
			Name:   "initFormModel",
			Type:   "Resource -> FormModel",
			Params: []string{"resource"},
			Body: elm.Record{Fields: []elm.Assign{
				{Name: "resource", Value: elm.Ref("resource")},
				{Name: "fields", Value: elm.Call("fieldsFor", elm.Ref("resource"))},
				{Name: "errors", Value: elm.List{}},
			}},
		},
		dispatch("fieldsFor", "List FormField", resources, fieldsName),
	}
	for _, m := range resources {
		decls = append(decls, formFieldList(m))
	}
	decls = append(decls,
		elm.Func{
			Name:   "updateFieldValue",
			Type:   "String -> String -> FormModel -> FormModel",
			Params: []string{"fieldName", "newValue", "model"},
			Body: elm.Update{Target: "model", Fields: []elm.Assign{{
				Name:  "fields",
				Value: elm.Call("List.map", elm.Call("setValue", elm.Ref("fieldName"), elm.Ref("newValue")), elm.Ref("model.fields")),
			}}},
		},
		elm.Func{
			Name:   "setValue",
			Type:   "String -> String -> FormField -> FormField",
			Params: []string{"fieldName", "newValue", "field"},
			Body: elm.If{
				Cond: elm.Op{Left: elm.Ref("field.name"), Op: "==", Right: elm.Ref("fieldName")},
				Then: elm.Update{Target: "field", Fields: []elm.Assign{{Name: "value", Value: elm.Ref("newValue")}}},
				Else: elm.Ref("field"),
			},
		},
	)
	return decls
}

func fieldsName(m model.Classified) string {
	return emit.LowerFirst(m.Name) + "Fields"
}

func columnsName(m model.Classified) string {
	return emit.LowerFirst(m.Name) + "Columns"
}

// dispatch is `name : Resource -> typ` selecting the per-resource value.
func dispatch(name, typ string, resources []model.Classified, valueName func(model.Classified) string) elm.Func {
	var branches []elm.Branch
	for _, m := range resources {
		branches = append(branches, elm.Branch{Pattern: m.Name, Body: elm.Ref(valueName(m))})
	}
	if len(resources) == 0 {
		branches = []elm.Branch{{Pattern: noResource, Body: elm.List{}}}
	}
	return elm.Func{
		Name:   name,
		Type:   "Resource -> " + typ,
		Params: []string{"resource"},
		Body:   elm.Case{Subject: elm.Ref("resource"), Branches: branches},
	}
}

func formFieldList(m model.Classified) elm.Func {
	var items []elm.Expr
	for _, f := range FormFields(m) {
		required := "True"
		if f.Optional {
			required = "False"
		}
		items = append(items, elm.Record{Fields: []elm.Assign{
			{Name: "name", Value: elm.Str(f.Name)},
			{Name: "label", Value: elm.Str(Label(f.Name))},
			{Name: "value", Value: elm.Str("")},
			{Name: "fieldType", Value: elm.Ref(string(TypeOf(f)))},
			{Name: "required", Value: elm.Ref(required)},
		}})
	}
	return elm.Func{
		Name: fieldsName(m),
		Type: "List FormField",
		Body: elm.List{Items: items},
	}
}

// Tables show every column except the infrastructure ones, keeping id and
// created_at for reference.
func tableColumns(m model.Classified) []string {
	var out []string
	for _, f := range m.Fields {
		if infrastructure[f.Name] && f.Name != "created_at" {
			continue
		}
		if TypeOf(f) == JsonEditor {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

func tableDecls(resources []model.Classified) []elm.Decl {
	decls := []elm.Decl{
		elm.TypeAlias{Name: "TableConfig", Fields: []elm.Field{
			{Name: "resource", Type: "Resource"},
			{Name: "sortField", Type: "String"},
			{Name: "sortDirection", Type: "String"},
			{Name: "currentPage", Type: "Int"},
			{Name: "itemsPerPage", Type: "Int"},
		}},
		dispatch("columnsFor", "List String", resources, columnsName),
	}
	for _, m := range resources {
		var items []elm.Expr
		for _, c := range tableColumns(m) {
			items = append(items, elm.Str(c))
		}
		decls = append(decls, elm.Func{
			Name: columnsName(m),
			Type: "List String",
			Body: elm.List{Items: items},
		})
	}
	return decls
}

func getStringField() elm.Func {
	return elm.Func{
		Doc:    "A column of a row as text; missing or non-string values are empty",
		Name:   "getStringField",
		Type:   "String -> Decode.Value -> String",
		Params: []string{"fieldName", "row"},
		Body: elm.Case{
			Subject: elm.Call("Decode.decodeValue", elm.Call("Decode.field", elm.Ref("fieldName"), elm.Ref("Decode.string")), elm.Ref("row")),
			Branches: []elm.Branch{
				{Pattern: "Ok str", Body: elm.Ref("str")},
				{Pattern: "Err _", Body: elm.Str("")},
			},
		},
	}
}
