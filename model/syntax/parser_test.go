package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_StructWithFields(t *testing.T) {
	src := `use crate::framework::database_types::*;

/// A profile
pub struct UserProfile {
    pub id: DatabaseId<String>, // primary key
    pub name: String,
    pub nickname: Option<String>,
    pub tags: Vec<String>,
    secret: String,
}
`
	f := Parse("user_profile.rs", src)
	require.Empty(t, f.Problems)
	require.Len(t, f.Structs, 1)

	sd := f.Structs[0]
	assert.Equal(t, "UserProfile", sd.Name)
	assert.True(t, sd.Public)
	require.Len(t, sd.Fields, 5)

	got := map[string]string{}
	for _, fd := range sd.Fields {
		got[fd.Name] = fd.Type.String()
	}
	assert.Equal(t, "DatabaseId<String>", got["id"])
	assert.Equal(t, "Option<String>", got["nickname"])
	assert.Equal(t, "Vec<String>", got["tags"])
	assert.False(t, sd.Fields[4].Public)
	assert.Equal(t, []string{"id", "name", "nickname", "tags", "secret"}, fieldNames(sd))
}

func TestParse_SkipsNonStructItems(t *testing.T) {
	src := `
#![allow(dead_code)]
use std::collections::{HashMap, HashSet};

const LIMIT: [u8; 3] = [1, 2, 3];

pub enum Status { Active, Archived { reason: String } }

impl Tag {
    pub fn new() -> Self { Tag { name: String::new() } }
}

fn helper<T: Clone>(x: T) -> T where T: Copy { x }

macro_rules! noop { () => {}; }

pub struct Tag {
    pub name: String,
}

struct Private {
    pub hidden: i32,
}

pub(crate) struct CrateOnly { pub x: i32 }

pub struct Marker;
pub struct Pair(pub i32, pub i32);
`
	f := Parse("tag.rs", src)
	require.Empty(t, f.Problems)

	names := []string{}
	for _, sd := range f.Structs {
		names = append(names, sd.Name)
	}
	assert.Equal(t, []string{"Tag", "Private", "CrateOnly", "Marker", "Pair"}, names)

	assert.True(t, f.Structs[0].Public)
	assert.False(t, f.Structs[1].Public)
	assert.False(t, f.Structs[2].Public)
	assert.True(t, f.Structs[3].Tuple)
	assert.True(t, f.Structs[4].Tuple)
}

func TestParse_MalformedFieldIsDropped(t *testing.T) {
	src := `pub struct Broken {
    pub ok_before: String,
    pub missing_type,
    pub empty_type: ,
    pub bad: Option<String,
    pub ok_after: i32,
}

pub struct Next { pub still_parsed: bool }
`
	f := Parse("broken.rs", src)
	require.Len(t, f.Structs, 2)
	assert.Equal(t, []string{"ok_before", "ok_after"}, fieldNames(f.Structs[0]))
	assert.Equal(t, []string{"still_parsed"}, fieldNames(f.Structs[1]))

	require.Len(t, f.Problems, 3)
	assert.Equal(t, "missing_type", f.Problems[0].Field)
	assert.Equal(t, "Broken", f.Problems[0].Struct)
	assert.Equal(t, "empty_type", f.Problems[1].Field)
	assert.Equal(t, "bad", f.Problems[2].Field)
}

func TestParse_Attributes(t *testing.T) {
	src := `#[derive(Debug, Clone, Serialize)]
#[buildamp(path = "SubmitComment", bundle_with = "Context", server_context = "Ctx")]
pub struct SubmitCommentReq {
    #[api(Inject = "host")]
    pub host: String,
    #[api(Required)]
    #[serde(rename = "body")]
    pub text: String,
}

#[kv(ttl = 600)]
pub struct UserSession { pub token: String }
`
	f := Parse("submit_comment.rs", src)
	require.Empty(t, f.Problems)
	require.Len(t, f.Structs, 2)

	req := f.Structs[0]
	require.Len(t, req.Attrs, 2)
	assert.Equal(t, "derive", req.Attrs[0].Name)
	assert.Equal(t, "buildamp", req.Attrs[1].Name)
	path, ok := req.Attrs[1].Arg("path")
	assert.True(t, ok)
	assert.Equal(t, "SubmitComment", path)

	inject, ok := req.Fields[0].Attrs[0].Arg("Inject")
	assert.True(t, ok)
	assert.Equal(t, "host", inject)

	_, required := req.Fields[1].Attrs[0].Arg("Required")
	assert.True(t, required)
	assert.Len(t, req.Fields[1].Attrs, 2)

	ttl, ok := f.Structs[1].Attrs[0].Arg("ttl")
	assert.True(t, ok)
	assert.Equal(t, "600", ttl)
}

func TestParseType_Forms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"String", "String"},
		{"std::string::String", "String"},
		{"::std::vec::Vec<u8>", "Vec<u8>"},
		{"Option<Option<i64>>", "Option<Option<i64>>"},
		{"Vec<Option<String>>", "Vec<Option<String>>"},
		{"&'a str", "str"},
		{"&mut Vec<i32>", "Vec<i32>"},
		{"HashMap<String, Vec<i32>>", "HashMap<String, Vec<i32>>"},
		{"(i32, String)", "(i32, String)"},
		{"[u8; 32]", "[u8]"},
		{"[String]", "[String]"},
		{"Box<dyn Display>", "Box<Display>"},
		{"SafeText<1, 100>", "SafeText<1, 100>"},
		{"Cow<'static, str>", "Cow<str>"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f := Parse("t.rs", "pub struct T { pub f: "+tt.src+", }")
			require.Empty(t, f.Problems)
			require.Len(t, f.Structs, 1)
			require.Len(t, f.Structs[0].Fields, 1)
			assert.Equal(t, tt.want, f.Structs[0].Fields[0].Type.String())
		})
	}
}

func TestParse_GenericStructAndWhere(t *testing.T) {
	src := `pub struct Page<T> where T: Clone {
    pub items: Vec<T>,
    pub total: u64,
}`
	f := Parse("page.rs", src)
	require.Empty(t, f.Problems)
	require.Len(t, f.Structs, 1)
	assert.Equal(t, []string{"items", "total"}, fieldNames(f.Structs[0]))
}

func TestParse_FnBoundInGenerics(t *testing.T) {
	src := `pub struct Worker<F: Fn() -> u8, G: Fn(u8) -> Vec<u8>> {
    pub name: String,
    pub retries: u32,
}`
	f := Parse("worker.rs", src)
	require.Empty(t, f.Problems)
	require.Len(t, f.Structs, 1)
	assert.Equal(t, "Worker", f.Structs[0].Name)
	assert.Equal(t, []string{"name", "retries"}, fieldNames(f.Structs[0]))
	assert.Equal(t, "u32", f.Structs[0].Fields[1].Type.String())
}

func TestLex_Arrow(t *testing.T) {
	toks, errs := Lex(`-> - >`)
	require.Empty(t, errs)
	require.Len(t, toks, 4)
	assert.Equal(t, "->", toks[0].Text)
	assert.Equal(t, "-", toks[1].Text)
	assert.Equal(t, ">", toks[2].Text)
	assert.Equal(t, EOF, toks[3].Kind)
}

func TestLex_CommentsStringsLifetimes(t *testing.T) {
	toks, errs := Lex(`/* outer /* nested */ still */ 'a 'x' "q\"s" r#"raw "x""# 1_000 1..2`)
	require.Empty(t, errs)

	var kinds []Kind
	var texts []string
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
		texts = append(texts, tk.Text)
	}
	assert.Equal(t, []Kind{Lifetime, Char, String, String, Number, Number, Punct, Punct, Number, EOF}, kinds)
	assert.Equal(t, "'a", texts[0])
	assert.Equal(t, "x", texts[1])
	assert.Equal(t, `q"s`, texts[2])
	assert.Equal(t, `raw "x"`, texts[3])
	assert.Equal(t, "1_000", texts[4])
}

func TestLex_Unterminated(t *testing.T) {
	_, errs := Lex(`"never closed`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "unterminated string")
}

func fieldNames(sd *StructDecl) []string {
	names := []string{}
	for _, fd := range sd.Fields {
		names = append(names, fd.Name)
	}
	return names
}
