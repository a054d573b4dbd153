package mcpserver

// NoteFormatContract describes the canonical Markdown format of rendered
// workout notes, for LLM consumers reading the vault.
const NoteFormatContract = `# Sowilo Workout Note Format

Every workout note in the vault follows this structure. Notes are
generated by the importer; treat them as read-only source material.

## Structure

` + "```" + `markdown
---
title: Running 2024-09-02 13:52     # workout type + local start time
workout: Running                     # normalized workout type
start: 2024-09-02 13:52:08 -0700     # start instant with UTC offset
duration: 45m 30s                    # human-readable duration
active_energy: 512.3 kcal            # present only when the export had it
distance: 4.2 mi                     # present only when the export had it
avg_heart_rate: 148 bpm              # present only when the export had it
tags:
  - workout
  - running                          # kebab-case slug of the workout type
---

# Running 2024-09-02 13:52

| Metric | Value |
| --- | --- |
| Duration | 45m 30s |
| Active Energy | 512.3 kcal |
| Distance | 4.2 mi |

## Heart Rate

120 samples, range 98.0–176.0

[GPX route](Workouts/routes/Running 2024-09-02 13.52.08.gpx)
` + "```" + `

## Rules

1. **Paths are deterministic.** A note lives at
   ` + "`" + `Workouts/<Type> <YYYY-MM-DD HH.MM.SS>.md` + "`" + ` and its GPX route (when the
   export carried one) at ` + "`" + `Workouts/routes/<same stem>.gpx` + "`" + `.
2. **Frontmatter keys are fixed.** Optional quantity keys are simply absent
   when the export did not record them.
3. **Series sections** (Heart Rate, Active Energy, Resting Energy,
   Distance, Step Count, Heart Rate Recovery) appear only for workouts with
   per-workout detail files in the archive.
4. **Re-importing overwrites.** The same workout from an overlapping export
   replaces the note in place; there are no duplicate or suffixed notes.
5. **Encoding** is UTF-8 with a trailing newline.
`
